// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package shell

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/research-hub/internal/library"
	"github.com/pdiddy/research-hub/internal/papersearch"
	"github.com/pdiddy/research-hub/internal/workspace"
	"github.com/pdiddy/research-hub/pkg/types"
)

func (sh *Shell) renderWorkspaces(snap workspace.Snapshot) {
	line := fmt.Sprintf("workspaces: %d", len(snap.Workspaces))
	if len(snap.Armed) > 0 {
		var names []string
		for _, ws := range snap.Workspaces {
			for _, id := range snap.Armed {
				if ws.ID == id {
					names = append(names, ws.Name)
				}
			}
		}
		line += " (awaiting delete confirmation: " + strings.Join(names, ", ") + ")"
	}
	sh.printf("%s\n", line)
}

func (sh *Shell) renderSearch(snap papersearch.Snapshot) {
	sh.printf("search: %d results, %d selected\n", len(snap.Results), len(snap.Selected))
}

func (sh *Shell) renderIngest(snap types.IngestSnapshot) {
	sh.printf("%s\n", ingestLine(snap))
	if snap.LastError != "" {
		sh.printf("error: %s\n", snap.LastError)
	}
}

func ingestLine(snap types.IngestSnapshot) string {
	switch snap.Stage {
	case types.StageEmpty:
		return "ingest: empty"
	case types.StageUploading:
		return fmt.Sprintf("ingest: extracting text from %s ...", snap.FileName)
	case types.StageSummarizing:
		return fmt.Sprintf("ingest: summarizing %s ...", snap.FileName)
	}
	line := fmt.Sprintf("ingest: %s %s (%d chars of text", snap.Stage, snap.FileName, len(snap.ExtractedText))
	if snap.Summary != "" {
		line += fmt.Sprintf(", %d chars of summary", len(snap.Summary))
	}
	line += ")"
	if snap.Saved {
		line += " saved"
	}
	return line
}

func (sh *Shell) printWorkspaces(snap workspace.Snapshot) {
	if len(snap.Workspaces) == 0 {
		sh.printf("No workspaces. Create one with: ws create <name> [description]\n")
		return
	}
	armed := make(map[string]bool, len(snap.Armed))
	for _, id := range snap.Armed {
		armed[id] = true
	}
	active := sh.Active()

	var b strings.Builder
	fmt.Fprintf(&b, "%-3s  %-1s  %-30s  %-6s  %-10s  %s\n", "#", "", "Name", "Papers", "Created", "Description")
	b.WriteString(strings.Repeat("-", 80) + "\n")
	for i, ws := range snap.Workspaces {
		mark := ""
		switch {
		case armed[ws.ID]:
			mark = "!"
		case ws.ID == active:
			mark = "*"
		}
		fmt.Fprintf(&b, "%-3d  %-1s  %-30s  %-6d  %-10s  %s\n",
			i+1, mark, truncate(ws.Name, 30), ws.PaperCount, ws.CreatedDate(), truncate(ws.Description, 40))
	}
	sh.printf("%s", b.String())
}

func (sh *Shell) printResults(results []types.PaperResult, selected []string) {
	if len(results) == 0 {
		sh.printf("No results found.\n")
		return
	}
	sel := make(map[string]bool, len(selected))
	for _, id := range selected {
		sel[id] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-4s  %-1s  %-50s  %-20s  %-4s  %-9s  %s\n",
		"ID", "", "Title", "Authors", "Year", "Citations", "Source")
	b.WriteString(strings.Repeat("-", 110) + "\n")
	for _, r := range results {
		mark := ""
		if sel[r.ID] {
			mark = "x"
		}
		fmt.Fprintf(&b, "%-4s  %-1s  %-50s  %-20s  %-4s  %-9s  %s\n",
			r.ID, mark, truncate(r.Title, 50), formatAuthors(r.Authors), r.Year(), r.Citations, r.Source)
		if len(r.Tags) > 0 {
			fmt.Fprintf(&b, "      tags: %s\n", strings.Join(r.Tags, ", "))
		}
	}
	sh.printf("%s", b.String())
}

func (sh *Shell) printHits(hits []library.Hit) {
	if len(hits) == 0 {
		sh.printf("No results found.\n")
		return
	}
	var b strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&b, "%d. [%s] %s (%s)\n", i+1, h.Kind, h.Title, h.ID)
		if h.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", h.Snippet)
		}
	}
	sh.printf("%s", b.String())
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
