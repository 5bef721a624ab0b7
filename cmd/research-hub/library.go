// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-hub/internal/library"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Query and export the local library",
	Long: `Library manages the local SQLite library of saved documents and imported
papers. Use subcommands to query it or export it.`,
}

// --- retrieve subcommand ---

var libraryRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Full-text search over saved documents and imported papers",
	Long: `Retrieve searches summaries, extracted text, titles and abstracts with
FTS5. Without a query it lists the newest records. Use --document to print one
saved document in full.`,
	RunE: runLibraryRetrieve,
}

func runLibraryRetrieve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := library.NewStore(cfg.Library, os.Stderr)
	if err != nil {
		return err
	}
	defer store.Close()

	if id, _ := cmd.Flags().GetString("document"); id != "" {
		doc, err := store.Document(context.Background(), id)
		if err != nil {
			return err
		}
		fmt.Printf("%s (saved %s)\n\n", doc.FileName, doc.SavedAt.Format("2006-01-02 15:04"))
		if doc.Summary != "" {
			fmt.Printf("%s\n\n", doc.Summary)
		}
		fmt.Println(doc.ExtractedText)
		return nil
	}

	opts := queryOptsFromFlags(cmd, args)
	hits, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(hits, jsonOutput)
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) library.QueryOptions {
	kind, _ := cmd.Flags().GetString("kind")
	ws, _ := cmd.Flags().GetString("workspace")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return library.QueryOptions{
		Query:       strings.Join(args, " "),
		Kind:        library.Kind(kind),
		WorkspaceID: ws,
		MaxResults:  maxResults,
	}
}

func formatRetrieveOutput(hits []library.Hit, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-8s  %-50s  %s\n", "Rank", "Kind", "Title", "ID")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for i, h := range hits {
		title := h.Title
		if r := []rune(title); len(r) > 50 {
			title = string(r[:47]) + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-8s  %-50s  %s\n", i+1, h.Kind, title, h.ID)
		if h.Snippet != "" {
			fmt.Fprintf(os.Stdout, "      %s\n", h.Snippet)
		}
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(hits))
	return nil
}

// --- export subcommand ---

var libraryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the library to YAML and JSON",
	Long: `Export writes every matching record, documents in full, to
<library-dir>/index/export.yaml and export.json.`,
	RunE: runLibraryExport,
}

func runLibraryExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := library.NewStore(cfg.Library, os.Stderr)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)
	yamlPath, err := store.ExportYAML(context.Background(), opts)
	if err != nil {
		return err
	}
	jsonPath, err := store.ExportJSON(context.Background(), opts)
	if err != nil {
		return err
	}
	fmt.Printf("exported to %s and %s\n", yamlPath, jsonPath)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{libraryRetrieveCmd, libraryExportCmd} {
		c.Flags().String("kind", "", "restrict to one record kind: paper or document")
		c.Flags().String("workspace", "", "restrict papers to a workspace ID")
		c.Flags().Int("max-results", 0, "maximum number of records (default from config)")
	}
	libraryRetrieveCmd.Flags().Bool("json", false, "output results as JSON")
	libraryRetrieveCmd.Flags().String("document", "", "print the saved document with this ID")

	libraryCmd.PersistentFlags().String("library-dir", "", "base directory for the library (overrides config)")
	viper.BindPFlag("library.dir", libraryCmd.PersistentFlags().Lookup("library-dir"))

	libraryCmd.AddCommand(libraryRetrieveCmd)
	libraryCmd.AddCommand(libraryExportCmd)
	rootCmd.AddCommand(libraryCmd)
}
