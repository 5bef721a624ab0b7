// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Known key files: semantic-scholar-api-key, ieee-api-key, ncbi-api-key,
// anthropic-api-key, research-hub-token, research-hub-token-type.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/research-hub/pkg/types"
)

// Key file names.
const (
	KeySemanticScholar = "semantic-scholar-api-key"
	KeyIEEE            = "ieee-api-key"
	KeyNCBI            = "ncbi-api-key"
	KeyAnthropic       = "anthropic-api-key"
	KeyHubToken        = "research-hub-token"
	KeyHubTokenType    = "research-hub-token-type"
)

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on warn but do not abort.
func Load(dir string, warn io.Writer) (Secrets, error) {
	if warn == nil {
		warn = io.Discard
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills API keys in cfg that are not already set.
func (s Secrets) Apply(cfg *types.HubConfig) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = s[key]
		}
	}
	fill(&cfg.Search.SemanticScholarAPIKey, KeySemanticScholar)
	fill(&cfg.Search.IEEEAPIKey, KeyIEEE)
	fill(&cfg.Search.NCBIAPIKey, KeyNCBI)
	fill(&cfg.AI.APIKey, KeyAnthropic)
}

// Store writes value to dir/key with owner-only permissions, creating dir
// if needed.
func Store(dir, key, value string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating secrets directory %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, key), []byte(value+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing secret %s: %w", key, err)
	}
	return nil
}

// Remove deletes dir/key. A missing file is not an error.
func Remove(dir, key string) error {
	err := os.Remove(filepath.Join(dir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing secret %s: %w", key, err)
	}
	return nil
}
