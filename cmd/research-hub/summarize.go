// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-hub/internal/ingest"
	"github.com/pdiddy/research-hub/internal/summarize"
	"github.com/pdiddy/research-hub/pkg/types"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file.pdf>",
	Short: "Extract and summarize one PDF",
	Long: `Summarize runs a single document through the ingestion pipeline: text
extraction, then an AI summary. The summary is printed as plain text, or as
markdown with --markdown. With --save the document is stored in the library.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().Bool("save", false, "save the document and summary to the library")
	summarizeCmd.Flags().Bool("markdown", false, "print the summary as markdown")
	summarizeCmd.Flags().Bool("text", false, "print the extracted text instead of summarizing")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logWriter(cmd)
	ctx := cmd.Context()

	svc, err := buildContent(ctx, cfg, newAuthSession(log), log)
	if err != nil {
		return err
	}

	opts := ingest.Options{SaveAckWindow: cfg.Ingest.SaveAckWindow, Log: log}
	save, _ := cmd.Flags().GetBool("save")
	if save {
		lib, err := openLibrary(cfg, log)
		if err != nil {
			return err
		}
		defer lib.Close()
		opts.Archiver = lib
	}
	p := ingest.New(svc, opts)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	file := types.File{Name: filepath.Base(args[0]), MIMEType: sniffPDF(data), Data: data}
	if err := p.Upload(ctx, file); err != nil {
		return err
	}
	p.Wait()
	if err := lastError(p.Snapshot()); err != nil {
		return err
	}

	if textOnly, _ := cmd.Flags().GetBool("text"); textOnly {
		fmt.Println(p.Snapshot().ExtractedText)
	} else {
		if err := p.GenerateSummary(ctx); err != nil {
			return err
		}
		p.Wait()
		snap := p.Snapshot()
		if err := lastError(snap); err != nil {
			return err
		}
		if md, _ := cmd.Flags().GetBool("markdown"); md {
			fmt.Println(snap.Summary)
		} else {
			fmt.Println(summarize.PlainText(snap.Summary))
		}
	}

	if save {
		if err := p.Save(ctx); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved %s to library\n", args[0])
	}
	return nil
}

func lastError(snap types.IngestSnapshot) error {
	if snap.LastError != "" {
		return errors.New(snap.LastError)
	}
	return nil
}

// sniffPDF declares application/pdf for files carrying the PDF signature.
func sniffPDF(data []byte) string {
	if len(data) >= 5 && string(data[:5]) == "%PDF-" {
		return types.MIMEPDF
	}
	return "application/octet-stream"
}
