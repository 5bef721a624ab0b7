package search

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-hub/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	PMID           string    `yaml:"PMID,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
	Keyword        string    `yaml:"keyword,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes search results as a CSL-YAML list to w.
func FormatCSL(out SearchOutput, w io.Writer) error {
	return WriteCSL(out.Results, w)
}

// WriteCSL writes papers as a CSL-YAML list to w.
func WriteCSL(papers []types.PaperResult, w io.Writer) error {
	items := make([]CSLItem, len(papers))
	for i, r := range papers {
		items[i] = toCSLItem(r)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a PaperResult to a CSLItem. Preprints are typed
// "article", PubMed records "article-journal", IEEE records "paper-conference".
func toCSLItem(r types.PaperResult) CSLItem {
	item := CSLItem{
		ID:       r.Identifier,
		Type:     cslType(r),
		Title:    r.Title,
		Abstract: r.Abstract,
		Keyword:  strings.Join(r.Tags, ", "),
	}

	for _, a := range r.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}

	if !r.Date.IsZero() {
		item.Issued = &CSLDate{
			DateParts: [][]int{{r.Date.Year(), int(r.Date.Month()), r.Date.Day()}},
		}
	}

	switch {
	case strings.HasPrefix(r.Identifier, "10."):
		item.DOI = r.Identifier
	case strings.HasPrefix(r.Identifier, "PMID:"):
		item.PMID = strings.TrimPrefix(r.Identifier, "PMID:")
	case isArxivID(r.Identifier):
		item.URL = "https://arxiv.org/abs/" + r.Identifier
		item.ContainerTitle = "arXiv"
	}
	if item.URL == "" && strings.HasPrefix(r.PreferredAcquisitionID, "http") {
		item.URL = r.PreferredAcquisitionID
	}

	return item
}

func cslType(r types.PaperResult) string {
	primary, _, _ := strings.Cut(r.Source, ",")
	switch types.SourceFilter(primary) {
	case types.SourcePubMed:
		return "article-journal"
	case types.SourceIEEE:
		return "paper-conference"
	default:
		return "article"
	}
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
