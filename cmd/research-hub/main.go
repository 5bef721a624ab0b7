// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-hub CLI: an interactive
// shell over workspaces, paper search and document ingestion, plus one-shot
// commands for search, summarization, PDF fetching and the library.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-hub/internal/httputil"
	"github.com/pdiddy/research-hub/internal/secrets"
	"github.com/pdiddy/research-hub/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds API keys and the backend credential.
const secretsDir = ".secrets/"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the research-hub CLI.
var rootCmd = &cobra.Command{
	Use:   "research-hub",
	Short: "Workspaces, paper search and document summaries for researchers",
	Long: `research-hub organizes academic research into workspaces. Search arXiv,
Semantic Scholar, PubMed and IEEE Xplore, import the papers you want, and
turn PDFs into extracted text and AI summaries saved to a local library.

Run "research-hub shell" for the interactive session. The content mode
(mock, direct or remote) decides where search, extraction and summaries come
from.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			httputil.RetryLog = os.Stderr
		}
		s, err := secrets.Load(secretsDir, os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 && verbose {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-hub.yaml or ~/.config/research-hub/config.yaml)")
	rootCmd.PersistentFlags().String("mode", "", "content mode: mock, direct or remote (overrides config)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log component transitions and HTTP retries to stderr")
	viper.BindPFlag("content.mode", rootCmd.PersistentFlags().Lookup("mode"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-hub")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-hub"))
		}
	}

	if err := setDefaults(viper.GetViper(), types.DefaultConfig()); err != nil {
		fmt.Fprintln(os.Stderr, "warning: registering config defaults:", err)
	}

	viper.SetEnvPrefix("RESEARCH_HUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key of def with v so that environment
// variables such as RESEARCH_HUB_CONTENT_MODE reach Unmarshal.
func setDefaults(v *viper.Viper, def types.HubConfig) error {
	data, err := yaml.Marshal(def)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return err
	}
	for k, val := range m {
		v.SetDefault(k, val)
	}
	return nil
}

// loadConfig decodes the merged configuration and fills API keys from
// loaded secrets.
func loadConfig() (types.HubConfig, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	loadedSecrets.Apply(&cfg)
	return cfg, nil
}

// logWriter returns the component log destination.
func logWriter(cmd *cobra.Command) io.Writer {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return os.Stderr
	}
	return io.Discard
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
