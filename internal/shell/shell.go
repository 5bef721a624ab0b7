// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package shell is a line-oriented front end for the workspace store, the
// paper search session and the ingestion pipeline. Each command forwards
// one intent to a component; observers print the resulting state.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdiddy/research-hub/internal/auth"
	"github.com/pdiddy/research-hub/internal/clock"
	"github.com/pdiddy/research-hub/internal/content"
	"github.com/pdiddy/research-hub/internal/ingest"
	"github.com/pdiddy/research-hub/internal/library"
	"github.com/pdiddy/research-hub/internal/papersearch"
	"github.com/pdiddy/research-hub/internal/workspace"
	"github.com/pdiddy/research-hub/pkg/types"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

// Library is the part of the saved-document library the shell uses.
type Library interface {
	ingest.Archiver
	RecordImport(ctx context.Context, workspaceID string, papers []types.PaperResult) error
	Retrieve(ctx context.Context, opts library.QueryOptions) ([]library.Hit, error)
}

// Fetcher downloads the PDF behind a search result.
type Fetcher interface {
	FetchResult(ctx context.Context, r types.PaperResult) (types.File, error)
}

// Options configures a Shell. Library, Fetcher, Auth and Login are
// optional; commands that need a missing one report it.
type Options struct {
	Config  types.HubConfig
	Library Library
	Fetcher Fetcher
	Auth    *auth.Session

	// Login exchanges email and password for a credential stored in Auth.
	Login func(ctx context.Context, email, password string) error

	Clock clock.Clock

	// DownloadDir is where download writes extracted text (default ".").
	DownloadDir string

	// Log receives component transition lines. Defaults to io.Discard.
	Log io.Writer
}

// Shell owns one instance of each core component.
type Shell struct {
	Workspaces *workspace.Store
	Search     *papersearch.Session
	Pipeline   *ingest.Pipeline

	content     content.Service
	library     Library
	fetcher     Fetcher
	auth        *auth.Session
	login       func(ctx context.Context, email, password string) error
	downloadDir string

	// ctx is the context of the command being executed; import hooks run
	// synchronously inside it.
	ctx context.Context

	outMu sync.Mutex
	out   io.Writer

	activeMu sync.Mutex
	active   string
}

// New wires the components to svc and registers observers that render
// every transition to out.
func New(svc content.Service, out io.Writer, opts Options) *Shell {
	if opts.Log == nil {
		opts.Log = io.Discard
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "."
	}
	sh := &Shell{
		content:     svc,
		library:     opts.Library,
		fetcher:     opts.Fetcher,
		auth:        opts.Auth,
		login:       opts.Login,
		downloadDir: opts.DownloadDir,
		ctx:         context.Background(),
		out:         out,
	}

	sh.Workspaces = workspace.NewStore(workspace.Options{
		Clock:         opts.Clock,
		ConfirmWindow: opts.Config.Workspace.DeleteConfirmWindow,
		Log:           opts.Log,
	})
	sh.Search = papersearch.New(svc, papersearch.Options{
		OnImport: sh.onImport,
		Log:      opts.Log,
	})
	popts := ingest.Options{
		Clock:         opts.Clock,
		SaveAckWindow: opts.Config.Ingest.SaveAckWindow,
		Log:           opts.Log,
	}
	if opts.Library != nil {
		popts.Archiver = opts.Library
	}
	sh.Pipeline = ingest.New(svc, popts)

	sh.Workspaces.OnChange(sh.renderWorkspaces)
	sh.Search.OnChange(sh.renderSearch)
	sh.Pipeline.OnChange(sh.renderIngest)
	return sh
}

// Run reads commands from in until EOF or quit. Command errors are printed
// and do not stop the loop.
func (sh *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	sh.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := sh.Exec(ctx, scanner.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			sh.printf("error: %v\n", err)
		}
		sh.prompt()
	}
	return scanner.Err()
}

func (sh *Shell) prompt() { sh.printf("research-hub> ") }

// Exec runs one command line. Lapsed delete confirmations and save
// acknowledgements are swept first. Calls must not overlap.
func (sh *Shell) Exec(ctx context.Context, line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	sh.ctx = ctx
	defer func() { sh.ctx = context.Background() }()

	sh.Workspaces.Sweep()
	sh.Pipeline.Sweep()

	name, rest := strings.ToLower(args[0]), args[1:]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q (try help)", types.ErrValidation, name)
	}
	return cmd.run(sh, ctx, rest)
}

func (sh *Shell) printf(format string, a ...any) {
	sh.outMu.Lock()
	defer sh.outMu.Unlock()
	fmt.Fprintf(sh.out, format, a...)
}

// Active returns the workspace that imports are added to.
func (sh *Shell) Active() string {
	sh.activeMu.Lock()
	defer sh.activeMu.Unlock()
	return sh.active
}

func (sh *Shell) setActive(id string) {
	sh.activeMu.Lock()
	sh.active = id
	sh.activeMu.Unlock()
}

// onImport counts imported papers against the active workspace and records
// them in the library.
func (sh *Shell) onImport(papers []types.PaperResult) {
	id := sh.Active()
	if id == "" {
		sh.printf("note: no active workspace; use \"ws use\" to count imports\n")
		return
	}
	if _, err := sh.Workspaces.AddPapers(id, len(papers)); err != nil {
		sh.printf("warning: counting imports: %v\n", err)
		return
	}
	if sh.library != nil {
		if err := sh.library.RecordImport(sh.ctx, id, papers); err != nil {
			sh.printf("warning: recording imports: %v\n", err)
		}
	}
}
