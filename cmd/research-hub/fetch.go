// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-hub/internal/acquire"
	"github.com/pdiddy/research-hub/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [identifiers...]",
	Short: "Download papers from arXiv IDs, DOIs or URLs",
	Long: `Fetch resolves paper identifiers (arXiv IDs, DOIs, direct PDF URLs) to PDF
files and writes them to --dir. DOIs are tried against OpenAlex for an
open-access copy first. With --metadata, bibliographic details are looked up
from arXiv or CrossRef and printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("dir", ".", "directory to write PDFs to")
	fetchCmd.Flags().Bool("metadata", false, "print title, authors and date for each identifier")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("dir")
	withMeta, _ := cmd.Flags().GetBool("metadata")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	f := acquire.NewFetcher(nil, cfg.Acquire, os.Stdout)
	failed := 0
	for _, id := range args {
		if withMeta {
			if p, err := f.Lookup(cmd.Context(), id); err != nil {
				fmt.Fprintf(os.Stderr, "warning: metadata for %s: %v\n", id, err)
			} else {
				printPaper(p)
			}
		}
		file, err := f.Fetch(cmd.Context(), id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", id, err)
			failed++
			continue
		}
		if file.MIMEType != types.MIMEPDF {
			fmt.Fprintf(os.Stderr, "error: %s: server returned %s, not a PDF\n", id, file.MIMEType)
			failed++
			continue
		}
		path := filepath.Join(dir, file.Name)
		if err := os.WriteFile(path, file.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("saved: %s (%d bytes)\n", path, len(file.Data))
	}
	if failed > 0 {
		return fmt.Errorf("%d paper(s) failed to download", failed)
	}
	return nil
}

func printPaper(p types.PaperResult) {
	fmt.Printf("%s\n  %s\n", p.Title, strings.Join(p.Authors, ", "))
	if y := p.Year(); y != "" {
		fmt.Printf("  %s, %s\n", y, p.Source)
	}
}
