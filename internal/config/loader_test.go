//go:build test

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/isseis/go-privsep-analyzer/internal/privilege"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Parse(t *testing.T) {
	content := []byte(`
[sections]
privileged = [".secure", ".boot"]
executable = [".text", ".secure"]

[elevation]
elevate = "sec::enter()"
lower = "sec::leave()"
exempt_prefixes = ["sec::"]

[analysis]
strategy = "exhaustive"
include_orphans = false

[logging]
level = "debug"
dir = "/var/log/privcheck"
`)

	cfg, err := NewLoader().Parse(content)
	require.NoError(t, err)

	assert.Equal(t, []string{".secure", ".boot"}, cfg.Sections.Privileged)
	assert.Equal(t, []string{".text", ".secure"}, cfg.Sections.Executable)
	assert.Equal(t, "sec::enter()", cfg.Elevation.Elevate)
	assert.Equal(t, "sec::leave()", cfg.Elevation.Lower)
	assert.Equal(t, []string{"sec::"}, cfg.Elevation.ExemptPrefixes)
	assert.Equal(t, "exhaustive", cfg.Analysis.Strategy)
	assert.False(t, cfg.Analysis.OrphansEnabled())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/var/log/privcheck", cfg.Logging.Dir)
}

func TestLoader_ParseAppliesDefaults(t *testing.T) {
	cfg, err := NewLoader().Parse([]byte(`
[analysis]
strategy = "single-visit"
`))
	require.NoError(t, err)

	assert.Equal(t, []string{".ktext", ".kdata", ".krodata", ".bootstrap"}, cfg.Sections.Privileged)
	assert.Equal(t, []string{".text", ".ktext"}, cfg.Sections.Executable)
	assert.Equal(t, privilege.DefaultElevateSymbol, cfg.Elevation.Elevate)
	assert.Equal(t, privilege.DefaultLowerSymbol, cfg.Elevation.Lower)
	assert.Equal(t, []string{privilege.DefaultExemptPrefix}, cfg.Elevation.ExemptPrefixes)
	assert.True(t, cfg.Analysis.OrphansEnabled())
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.Dir)
}

func TestLoader_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "syntax error", content: "[sections\nprivileged = 1"},
		{name: "unknown key", content: "[sections]\nprivilegd = [\".ktext\"]"},
		{name: "unknown table", content: "[output]\nformat = \"json\""},
		{name: "wrong type", content: "[analysis]\ninclude_orphans = \"yes\""},
		{name: "empty section name", content: "[sections]\nprivileged = [\".ktext\", \" \"]", wantErr: ErrEmptySectionName},
		{name: "no executable sections", content: "[sections]\nexecutable = []", wantErr: ErrNoExecutableSections},
		{name: "same primitives", content: "[elevation]\nelevate = \"p()\"\nlower = \"p\"", wantErr: ErrSamePrimitive},
		{name: "bad strategy", content: "[analysis]\nstrategy = \"random\"", wantErr: privilege.ErrUnknownStrategy},
		{name: "bad log level", content: "[logging]\nlevel = \"verbose\"", wantErr: ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().Parse([]byte(tt.content))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoader_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "privcheck.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = \"warn\"\n"), 0o600))

	cfg, err := NewLoader().LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)

	cfg, err = NewLoader().LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = NewLoader().LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
