package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-hub/internal/search"
	"github.com/pdiddy/research-hub/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [question]",
	Short: "Search academic APIs for candidate papers",
	Long: `Search queries academic APIs (arXiv, Semantic Scholar, PubMed, IEEE Xplore)
for papers matching a research question or structured query parameters.
Results are deduplicated across sources and ranked by relevance. This command
always calls the public APIs, whatever the content mode.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text research question")
	searchCmd.Flags().String("author", "", "filter by author name")
	searchCmd.Flags().String("keywords", "", "filter by keywords (comma-separated)")
	searchCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	searchCmd.Flags().String("source", "all", "restrict to one source: all, arxiv, semantic_scholar, pubmed, ieee")
	searchCmd.Flags().Int("max-results", 0, "maximum number of results to return (default from config)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("csl", false, "output results as CSL-YAML for citation managers")
	searchCmd.Flags().Bool("recency-bias", false, "boost recently published papers")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	q, err := searchQuery(cmd, args)
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Search.MaxResults = n
	}
	src, _ := cmd.Flags().GetString("source")
	filter, err := types.ParseSourceFilter(src)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	asCSL, _ := cmd.Flags().GetBool("csl")
	if asJSON && asCSL {
		return fmt.Errorf("--json and --csl are mutually exclusive")
	}
	recency, _ := cmd.Flags().GetBool("recency-bias")

	svc := search.NewService(search.DefaultBackends(cfg.Search, nil), cfg.Search, recency, os.Stderr)
	backends := svc.BackendsFor(filter)
	if len(backends) == 0 {
		return fmt.Errorf("%w for source %s", search.ErrNoBackends, filter)
	}

	out, err := search.Search(context.Background(), q, backends, cfg.Search, recency, os.Stderr)
	if err != nil {
		return err
	}

	switch {
	case asJSON:
		return search.FormatJSON(out, os.Stdout)
	case asCSL:
		return search.FormatCSL(out, os.Stdout)
	default:
		search.FormatTable(out, os.Stdout)
		return nil
	}
}

// searchQuery builds a query from flags; positional arguments are joined
// into the free-text question when --query is not given.
func searchQuery(cmd *cobra.Command, args []string) (search.Query, error) {
	var q search.Query
	q.FreeText, _ = cmd.Flags().GetString("query")
	if q.FreeText == "" {
		q.FreeText = strings.Join(args, " ")
	}
	q.Author, _ = cmd.Flags().GetString("author")
	if kw, _ := cmd.Flags().GetString("keywords"); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				q.Keywords = append(q.Keywords, k)
			}
		}
	}
	var err error
	if q.DateFrom, err = dateFlag(cmd, "from"); err != nil {
		return q, err
	}
	if q.DateTo, err = dateFlag(cmd, "to"); err != nil {
		return q, err
	}
	return q, nil
}

func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s must be YYYY-MM-DD: %q", types.ErrValidation, name, v)
	}
	return t, nil
}
