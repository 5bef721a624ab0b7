// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-hub/pkg/types"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	require.NoError(t, setDefaults(v, types.DefaultConfig()))
	v.SetEnvPrefix("RESEARCH_HUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestConfigDefaults(t *testing.T) {
	var cfg types.HubConfig
	require.NoError(t, newTestViper(t).Unmarshal(&cfg))

	def := types.DefaultConfig()
	assert.Equal(t, def.Workspace, cfg.Workspace)
	assert.Equal(t, def.Ingest, cfg.Ingest)
	assert.Equal(t, def.Content.Mode, cfg.Content.Mode)
	assert.Equal(t, 60*time.Second, cfg.Search.Timeout)
	assert.Equal(t, types.DefaultUserAgent, cfg.Search.UserAgent)
	assert.Equal(t, 20, cfg.Search.MaxResults)
	assert.Equal(t, "library", cfg.Library.Dir)
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("RESEARCH_HUB_CONTENT_MODE", "remote")
	t.Setenv("RESEARCH_HUB_WORKSPACE_DELETE_CONFIRM_WINDOW", "5s")
	t.Setenv("RESEARCH_HUB_SEARCH_ENABLE_IEEE", "false")

	var cfg types.HubConfig
	require.NoError(t, newTestViper(t).Unmarshal(&cfg))
	assert.Equal(t, types.ContentRemote, cfg.Content.Mode)
	assert.Equal(t, 5*time.Second, cfg.Workspace.DeleteConfirmWindow)
	assert.False(t, cfg.Search.EnableIEEE)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research-hub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
content:
  mode: direct
  converter: pdftotext
ingest:
  save_ack_window: 1500ms
search:
  user_agent: lab-bot/1.0
`), 0o644))

	v := newTestViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	var cfg types.HubConfig
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, types.ContentDirect, cfg.Content.Mode)
	assert.Equal(t, types.BackendPdftotext, cfg.Content.Converter)
	assert.Equal(t, 1500*time.Millisecond, cfg.Ingest.SaveAckWindow)
	assert.Equal(t, "lab-bot/1.0", cfg.Search.UserAgent)
	assert.Equal(t, 60*time.Second, cfg.Search.Timeout, "untouched keys keep defaults")
}

func TestSniffPDF(t *testing.T) {
	assert.Equal(t, types.MIMEPDF, sniffPDF([]byte("%PDF-1.7\n...")))
	assert.Equal(t, "application/octet-stream", sniffPDF([]byte("hello")))
	assert.Equal(t, "application/octet-stream", sniffPDF(nil))
}
