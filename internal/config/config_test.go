package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_emptyYieldsDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_fileOverridesDefaults(t *testing.T) {
	doc := `
profile: staging
follow_redirects: false
ignore_certificate_hosts:
  - internal.example.com
`
	cfg, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Profile)
	assert.False(t, cfg.FollowRedirects)
	assert.Equal(t, []string{"internal.example.com"}, cfg.IgnoreCertificateHosts)
	assert.Equal(t, "restpilot.yaml", cfg.CollectionFile) // untouched default
}

func TestLoadFile_missingYieldsDefaults(t *testing.T) {
	cfg, err := LoadFile("/nonexistent/restpilot-config-test.yaml")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}
