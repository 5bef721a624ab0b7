// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-hub/internal/shell"
	"github.com/pdiddy/research-hub/pkg/types"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive research session",
	Long: `Shell reads commands from stdin: create and delete workspaces, search for
papers and import them, upload or open PDFs, generate summaries and save
documents to the library. Type "help" inside the shell for the command list.`,
	RunE: runShell,
}

func init() {
	shellCmd.Flags().String("download-dir", ".", "directory the download command writes to")
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logWriter(cmd)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	session := newAuthSession(log)
	svc, err := buildContent(ctx, cfg, session, log)
	if err != nil {
		return err
	}

	lib, err := openLibrary(cfg, log)
	if err != nil {
		return err
	}
	defer lib.Close()

	downloadDir, _ := cmd.Flags().GetString("download-dir")
	opts := shell.Options{
		Config:      cfg,
		Library:     lib,
		Fetcher:     newFetcher(cfg, log),
		Auth:        session,
		DownloadDir: downloadDir,
		Log:         log,
	}
	if cfg.Content.Mode == types.ContentRemote {
		opts.Login = loginFunc(cfg, session)
	}

	fmt.Fprintf(os.Stdout, "research-hub %s (content mode: %s). Type \"help\" for commands.\n", version, cfg.Content.Mode)
	return shell.New(svc, os.Stdout, opts).Run(ctx, os.Stdin)
}
