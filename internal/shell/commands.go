// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package shell

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/research-hub/internal/library"
	"github.com/pdiddy/research-hub/internal/summarize"
	"github.com/pdiddy/research-hub/internal/workspace"
	"github.com/pdiddy/research-hub/pkg/types"
)

type command struct {
	usage string
	help  string
	run   func(sh *Shell, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"ws":        {"ws create|list|use|delete ...", "manage workspaces", (*Shell).cmdWorkspace},
		"search":    {"search [--source=S] <query>", "search for papers (sources: all, arxiv, semantic_scholar, pubmed, ieee)", (*Shell).cmdSearch},
		"results":   {"results", "list the current search results", (*Shell).cmdResults},
		"select":    {"select <id>...", "toggle selection of search results", (*Shell).cmdSelect},
		"import":    {"import", "import the selected results into the active workspace", (*Shell).cmdImport},
		"upload":    {"upload <file>", "start ingesting a local PDF", (*Shell).cmdUpload},
		"open":      {"open <id>", "download a search result's PDF and ingest it", (*Shell).cmdOpen},
		"summarize": {"summarize", "generate a summary of the extracted text", (*Shell).cmdSummarize},
		"save":      {"save", "save the current document to the library", (*Shell).cmdSave},
		"clear":     {"clear", "discard the current document", (*Shell).cmdClear},
		"show":      {"show text|summary", "print a result pane", (*Shell).cmdShow},
		"status":    {"status", "print the state of every component", (*Shell).cmdStatus},
		"download":  {"download [dir]", "write the extracted text to <name>_text.txt", (*Shell).cmdDownload},
		"wait":      {"wait", "block until pending extraction or summary work finishes", (*Shell).cmdWait},
		"library":   {"library [--kind=K] [query]", "query saved documents and imported papers", (*Shell).cmdLibrary},
		"ask":       {"ask <question>", "ask the research assistant a question", (*Shell).cmdAsk},
		"login":     {"login <email> <password>", "sign in to the research-hub backend", (*Shell).cmdLogin},
		"logout":    {"logout", "forget the stored credential", (*Shell).cmdLogout},
		"help":      {"help", "list commands", (*Shell).cmdHelp},
		"quit":      {"quit", "leave the shell", func(*Shell, context.Context, []string) error { return ErrQuit }},
	}
	commands["exit"] = commands["quit"]
}

func (sh *Shell) cmdHelp(_ context.Context, _ []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		if name != "exit" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		sh.printf("  %-30s %s\n", c.usage, c.help)
	}
	return nil
}

func usageErr(name string) error {
	return fmt.Errorf("%w: usage: %s", types.ErrValidation, commands[name].usage)
}

// --- workspaces ---

func (sh *Shell) cmdWorkspace(_ context.Context, args []string) error {
	if len(args) == 0 {
		return usageErr("ws")
	}
	switch args[0] {
	case "create":
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("%w: usage: ws create <name> [description]", types.ErrValidation)
		}
		desc := ""
		if len(args) == 3 {
			desc = args[2]
		}
		ws, err := sh.Workspaces.Create(args[1], desc)
		if err != nil {
			return err
		}
		if sh.Active() == "" {
			sh.setActive(ws.ID)
		}
		return nil
	case "list", "ls":
		sh.printWorkspaces(sh.Workspaces.Snapshot())
		return nil
	case "use":
		if len(args) != 2 {
			return fmt.Errorf("%w: usage: ws use <ref>", types.ErrValidation)
		}
		ws, err := sh.resolveWorkspace(args[1])
		if err != nil {
			return err
		}
		sh.setActive(ws.ID)
		sh.printf("active workspace: %s\n", ws.Name)
		return nil
	case "delete", "rm":
		if len(args) != 2 {
			return fmt.Errorf("%w: usage: ws delete <ref>", types.ErrValidation)
		}
		ws, err := sh.resolveWorkspace(args[1])
		if err != nil {
			return err
		}
		outcome, err := sh.Workspaces.DeleteIntent(ws.ID)
		if err != nil {
			return err
		}
		switch outcome {
		case workspace.OutcomeArmed:
			sh.printf("delete %q? repeat the command to confirm\n", ws.Name)
		case workspace.OutcomeDeleted:
			if sh.Active() == ws.ID {
				sh.setActive("")
			}
		}
		return nil
	}
	return usageErr("ws")
}

// resolveWorkspace accepts a list position ("#2" or "2"), a full ID, or a
// unique name.
func (sh *Shell) resolveWorkspace(ref string) (types.Workspace, error) {
	list := sh.Workspaces.List()
	if n, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		if n < 1 || n > len(list) {
			return types.Workspace{}, fmt.Errorf("workspace #%d: %w", n, workspace.ErrNotFound)
		}
		return list[n-1], nil
	}
	if ws, ok := sh.Workspaces.Get(ref); ok {
		return ws, nil
	}
	var match []types.Workspace
	for _, ws := range list {
		if strings.EqualFold(ws.Name, ref) {
			match = append(match, ws)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
		return types.Workspace{}, fmt.Errorf("workspace %q: %w", ref, workspace.ErrNotFound)
	default:
		return types.Workspace{}, fmt.Errorf("%w: %d workspaces are named %q; use #n or the ID", types.ErrValidation, len(match), ref)
	}
}

// --- search ---

func (sh *Shell) cmdSearch(ctx context.Context, args []string) error {
	filter := types.SourceAll
	var terms []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case strings.HasPrefix(a, "--source="):
			f, err := types.ParseSourceFilter(strings.TrimPrefix(a, "--source="))
			if err != nil {
				return err
			}
			filter = f
		case a == "--source" && i+1 < len(args):
			f, err := types.ParseSourceFilter(args[i+1])
			if err != nil {
				return err
			}
			filter = f
			i++
		default:
			terms = append(terms, a)
		}
	}
	results, err := sh.Search.Search(ctx, strings.Join(terms, " "), filter)
	if err != nil {
		return err
	}
	sh.printResults(results, sh.Search.Selected())
	return nil
}

func (sh *Shell) cmdResults(_ context.Context, _ []string) error {
	sh.printResults(sh.Search.Results(), sh.Search.Selected())
	return nil
}

func (sh *Shell) cmdSelect(_ context.Context, args []string) error {
	if len(args) == 0 {
		return usageErr("select")
	}
	for _, id := range args {
		if err := sh.Search.ToggleSelect(id); err != nil {
			return err
		}
	}
	return nil
}

func (sh *Shell) cmdImport(_ context.Context, _ []string) error {
	n := sh.Search.ImportSelected()
	if n == 0 {
		sh.printf("nothing selected\n")
		return nil
	}
	sh.printf("Imported %d papers\n", n)
	return nil
}

// --- ingestion ---

func (sh *Shell) cmdUpload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageErr("upload")
	}
	file, err := readFile(args[0])
	if err != nil {
		return err
	}
	return sh.Pipeline.Upload(ctx, file)
}

// readFile loads path and declares its MIME type from the extension,
// falling back to content sniffing.
func readFile(path string) (types.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.File{}, fmt.Errorf("%w: %w", types.ErrValidation, err)
	}
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt == "" {
		mt = http.DetectContentType(data)
	}
	return types.File{Name: filepath.Base(path), MIMEType: mt, Data: data}, nil
}

func (sh *Shell) cmdOpen(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageErr("open")
	}
	if sh.fetcher == nil {
		return fmt.Errorf("%w: PDF download is not configured", types.ErrValidation)
	}
	r, err := sh.Search.Result(args[0])
	if err != nil {
		return err
	}
	sh.printf("fetching %s ...\n", r.Title)
	file, err := sh.fetcher.FetchResult(ctx, r)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrCollaborator, err)
	}
	return sh.Pipeline.Upload(ctx, file)
}

func (sh *Shell) cmdSummarize(ctx context.Context, _ []string) error {
	return sh.Pipeline.GenerateSummary(ctx)
}

func (sh *Shell) cmdSave(ctx context.Context, _ []string) error {
	return sh.Pipeline.Save(ctx)
}

func (sh *Shell) cmdClear(_ context.Context, _ []string) error {
	sh.Pipeline.Clear()
	return nil
}

func (sh *Shell) cmdShow(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usageErr("show")
	}
	section := types.Section(strings.ToLower(args[0]))
	if section != types.SectionText && section != types.SectionSummary {
		return usageErr("show")
	}
	if err := sh.Pipeline.ShowSection(section); err != nil {
		return err
	}
	snap := sh.Pipeline.Snapshot()
	switch section {
	case types.SectionText:
		sh.printf("%s\n", snap.ExtractedText)
	case types.SectionSummary:
		if snap.Stage == types.StageSummarizing {
			sh.printf("(summary in progress)\n")
			return nil
		}
		sh.printf("%s\n", summarize.PlainText(snap.Summary))
	}
	return nil
}

func (sh *Shell) cmdDownload(_ context.Context, args []string) error {
	dir := sh.downloadDir
	if len(args) > 1 {
		return usageErr("download")
	}
	if len(args) == 1 {
		dir = args[0]
	}
	name, text, err := sh.Pipeline.DownloadText()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	sh.printf("wrote %s\n", path)
	return nil
}

func (sh *Shell) cmdWait(_ context.Context, _ []string) error {
	sh.Pipeline.Wait()
	return nil
}

func (sh *Shell) cmdStatus(_ context.Context, _ []string) error {
	sh.printWorkspaces(sh.Workspaces.Snapshot())
	snap := sh.Search.Snapshot()
	sh.printf("search: query=%q source=%s results=%d selected=%d\n",
		snap.Query, snap.Filter, len(snap.Results), len(snap.Selected))
	sh.printf("%s\n", ingestLine(sh.Pipeline.Snapshot()))
	if sh.auth != nil {
		if _, ok := sh.auth.Credential(); ok {
			sh.printf("auth: signed in\n")
		} else {
			sh.printf("auth: signed out\n")
		}
	}
	return nil
}

// --- library ---

func (sh *Shell) cmdLibrary(ctx context.Context, args []string) error {
	if sh.library == nil {
		return fmt.Errorf("%w: library is not configured", types.ErrValidation)
	}
	opts := library.QueryOptions{}
	var terms []string
	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "--kind="):
			opts.Kind = library.Kind(strings.TrimPrefix(a, "--kind="))
		case a == "--here":
			opts.WorkspaceID = sh.Active()
		default:
			terms = append(terms, a)
		}
	}
	opts.Query = strings.Join(terms, " ")
	hits, err := sh.library.Retrieve(ctx, opts)
	if err != nil {
		return err
	}
	sh.printHits(hits)
	return nil
}

func (sh *Shell) cmdAsk(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageErr("ask")
	}
	answer, err := sh.content.Ask(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	sh.printf("%s\n", strings.TrimSpace(answer))
	return nil
}

// --- auth ---

func (sh *Shell) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageErr("login")
	}
	if sh.login == nil {
		return fmt.Errorf("%w: login requires content mode remote", types.ErrValidation)
	}
	if err := sh.login(ctx, args[0], args[1]); err != nil {
		return err
	}
	sh.printf("signed in as %s\n", strings.ToLower(strings.TrimSpace(args[0])))
	return nil
}

func (sh *Shell) cmdLogout(_ context.Context, _ []string) error {
	if sh.auth == nil {
		return fmt.Errorf("%w: no auth session", types.ErrValidation)
	}
	if err := sh.auth.Logout(); err != nil {
		return err
	}
	sh.printf("signed out\n")
	return nil
}
