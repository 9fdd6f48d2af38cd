package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthsweep/internal/artifact"
	"github.com/roach88/synthsweep/internal/flow"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synthsweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	s, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Empty(t, s.File)
	assert.Equal(t, flow.DefaultEngineBinary, s.Engine.Binary)
	assert.Equal(t, flow.DefaultEngineArgs, s.Engine.Args)
	assert.Equal(t, flow.DefaultStage, s.Engine.Stage)
	assert.Equal(t, time.Duration(0), s.Engine.Timeout)
	assert.Equal(t, "dot", s.Converter.Binary)
	assert.Equal(t, "svg", s.Converter.Format)
	assert.Equal(t, time.Minute, s.Converter.Timeout)
	assert.Equal(t, "report.md.tmpl", s.Report.Template)
	assert.Equal(t, 1, s.Jobs)
	assert.False(t, s.Publish.Enabled)
	assert.Equal(t, artifact.DefaultKinds, s.ArtifactKinds())
}

func TestLoad_FileFoundInWorkingDirectory(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("synthsweep.yaml", []byte("jobs: 3\n"), 0o644))

	s, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Jobs)
	assert.Equal(t, "synthsweep.yaml", filepath.Base(s.File))
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	path := writeSettings(t, `
engine:
  binary: /opt/openlane/bin/openlane
  stage: 02-yosys
  timeout: 90s
converter:
  format: png
report:
  template: report.html.tmpl
  template_dirs: [/etc/synthsweep/templates]
artifacts:
  - name: hierarchy
    file: hierarchy.dot
    graph: true
  - name: stat
    file: reports/stat.json
jobs: 4
db: /var/lib/synthsweep/ledger.db
`)

	s, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, path, s.File)
	assert.Equal(t, "/opt/openlane/bin/openlane", s.Engine.Binary)
	assert.Equal(t, 90*time.Second, s.Engine.Timeout)
	assert.Equal(t, "png", s.Converter.Format)
	assert.Equal(t, []string{"/etc/synthsweep/templates"}, s.Report.TemplateDirs)
	assert.Equal(t, 4, s.Jobs)
	assert.Equal(t, "/var/lib/synthsweep/ledger.db", s.DB)
	assert.Equal(t, []artifact.Kind{
		{Name: "hierarchy", File: "hierarchy.dot", Graph: true},
		{Name: "stat", File: "reports/stat.json"},
	}, s.ArtifactKinds())

	layout := s.Layout("/work/design")
	assert.Equal(t, filepath.Join("/work/design", "runs", "r1", "02-yosys"), layout.StageDir("r1"))
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read settings")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	path := writeSettings(t, "jobs: 2\nconverter:\n  binary: dot\n")
	t.Setenv("SYNTHSWEEP_JOBS", "6")
	t.Setenv("SYNTHSWEEP_CONVERTER_BINARY", "/usr/local/bin/dot")
	t.Setenv("SYNTHSWEEP_ENGINE_TIMEOUT", "2m")

	s, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Jobs)
	assert.Equal(t, "/usr/local/bin/dot", s.Converter.Binary)
	assert.Equal(t, 2*time.Minute, s.Engine.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"zero jobs", "jobs: 0\n", "jobs must be at least 1"},
		{"empty engine", "engine:\n  binary: \"\"\n", "engine.binary"},
		{"bad artifact", "artifacts:\n  - name: Bad Name\n    file: x\n", "snake case"},
		{"publish without bucket", "publish:\n  enabled: true\n  endpoint: localhost:9000\n", "missing bucket"},
		{"not yaml", "jobs: [\n", "read settings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(viper.New(), writeSettings(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPublishConfig(t *testing.T) {
	var s Settings
	s.Publish.Endpoint = "minio:9000"
	s.Publish.Bucket = "reports"
	s.Publish.Prefix = "nightly"
	s.Publish.UseSSL = true

	cfg := s.PublishConfig()
	assert.Equal(t, "minio:9000", cfg.Endpoint)
	assert.Equal(t, "reports", cfg.Bucket)
	assert.Equal(t, "nightly", cfg.Prefix)
	assert.True(t, cfg.UseSSL)
	assert.NoError(t, cfg.Validate())
}
