package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/linreg/format"
	"github.com/arloliu/linreg/regression"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefault(t *testing.T) {
	s := Default()

	require.True(t, s.Input.Header)
	require.Equal(t, ",", s.Input.Delimiter)
	require.Equal(t, "y", s.Input.ResponseColumn)
	require.Equal(t, 4, s.Pipeline.Partitions)
	require.Equal(t, "none", s.Pipeline.Compression)
	require.True(t, s.Estimator.Statistics)
	require.Equal(t, regression.DefaultPositivityThreshold, s.Estimator.PositivityThreshold)
	require.Equal(t, "info", s.System.LogLevel)

	require.Error(t, s.Validate(), "defaults alone lack an input path")
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("LINREG_INPUT", "data.csv")
	t.Setenv("LINREG_PARTITIONS", "8")
	t.Setenv("LINREG_COMPRESSION", "zstd")
	t.Setenv("LINREG_FEATURE_COLUMNS", "x0, x1 ,,x2")
	t.Setenv("LINREG_STATISTICS", "false")
	t.Setenv("LINREG_LOG_LEVEL", "DEBUG")

	s, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "data.csv", s.Input.Path)
	require.Equal(t, 8, s.Pipeline.Partitions)
	require.Equal(t, []string{"x0", "x1", "x2"}, s.Input.FeatureColumns)
	require.False(t, s.Estimator.Statistics)

	compression, err := s.CompressionType()
	require.NoError(t, err)
	require.Equal(t, format.CompressionZstd, compression)

	level, err := s.Level()
	require.NoError(t, err)
	require.Equal(t, zerolog.DebugLevel, level)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "linreg.yaml", `
input:
  path: observations.tsv
  delimiter: "\t"
  keyColumn: region
  responseColumn: load
  featureColumns: [temp, hour]
pipeline:
  partitions: 2
  compression: lz4
  bigEndian: true
  checkpointPath: /tmp/linreg.db
estimator:
  positivityThreshold: 1.0e-8
system:
  logLevel: warn
  metricsFile: metrics.prom
predict:
  - [21.5, 14]
`)

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "observations.tsv", s.Input.Path)
	require.True(t, s.Input.Header, "unset keys keep their defaults")
	require.Equal(t, '\t', s.Comma())
	require.Equal(t, "region", s.Input.KeyColumn)
	require.Equal(t, "load", s.Input.ResponseColumn)
	require.Equal(t, []string{"temp", "hour"}, s.Input.FeatureColumns)
	require.Equal(t, 2, s.Pipeline.Partitions)
	require.True(t, s.Pipeline.BigEndian)
	require.Equal(t, "/tmp/linreg.db", s.Pipeline.CheckpointPath)
	require.True(t, s.Estimator.Statistics)
	require.Equal(t, 1e-8, s.Estimator.PositivityThreshold)
	require.Equal(t, "metrics.prom", s.System.MetricsFile)
	require.Equal(t, [][]float64{{21.5, 14}}, s.Prediction)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "linreg.yaml", "input:\n  path: a.csv\npipeline:\n  partitions: 2\n")
	t.Setenv("LINREG_INPUT", "b.csv")
	t.Setenv("LINREG_PARTITIONS", "3")

	s, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "b.csv", s.Input.Path)
	require.Equal(t, 3, s.Pipeline.Partitions)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "input: [unclosed"))
		require.ErrorContains(t, err, "failed to parse config file")
	})

	t.Run("malformed env", func(t *testing.T) {
		t.Setenv("LINREG_INPUT", "a.csv")
		t.Setenv("LINREG_PARTITIONS", "many")

		_, err := Load("")
		require.ErrorContains(t, err, "LINREG_PARTITIONS")
	})
}

func TestValidate(t *testing.T) {
	valid := func() Settings {
		s := Default()
		s.Input.Path = "data.csv"

		return s
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		modify func(s *Settings)
		errMsg string
	}{
		{"empty delimiter", func(s *Settings) { s.Input.Delimiter = "" }, "delimiter"},
		{"long delimiter", func(s *Settings) { s.Input.Delimiter = ";;" }, "delimiter"},
		{"no response column", func(s *Settings) { s.Input.ResponseColumn = "" }, "response column"},
		{"key equals response", func(s *Settings) { s.Input.KeyColumn = "y" }, "must differ"},
		{"feature equals response", func(s *Settings) { s.Input.FeatureColumns = []string{"x", "y"} }, "feature column"},
		{"zero partitions", func(s *Settings) { s.Pipeline.Partitions = 0 }, "partitions"},
		{"too many partitions", func(s *Settings) { s.Pipeline.Partitions = 4096 }, "partitions"},
		{"unknown compression", func(s *Settings) { s.Pipeline.Compression = "gzip" }, "gzip"},
		{"negative threshold", func(s *Settings) { s.Estimator.PositivityThreshold = -1 }, "positivity threshold"},
		{"threshold of one", func(s *Settings) { s.Estimator.PositivityThreshold = 1 }, "positivity threshold"},
		{"unknown log level", func(s *Settings) { s.System.LogLevel = "chatty" }, "log level"},
		{"empty prediction", func(s *Settings) { s.Prediction = [][]float64{{}} }, "prediction 0"},
		{"no input", func(s *Settings) { s.Input.Path = "" }, "input path"},
		{"resume without checkpoints", func(s *Settings) { s.Pipeline.Resume = true }, "checkpoint path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.modify(&s)
			require.ErrorContains(t, s.Validate(), tt.errMsg)
		})
	}
}

func TestLoadWithOverrides(t *testing.T) {
	t.Setenv("LINREG_INPUT", "env.csv")
	t.Setenv("LINREG_PARTITIONS", "2")

	s, err := LoadWithOverrides("", func(s *Settings) {
		s.Input.Path = "flag.csv"
	})
	require.NoError(t, err)
	require.Equal(t, "flag.csv", s.Input.Path)
	require.Equal(t, 2, s.Pipeline.Partitions)

	_, err = LoadWithOverrides("", func(s *Settings) {
		s.Pipeline.Partitions = 0
	})
	require.ErrorContains(t, err, "partitions")
}

func TestLoad_Resume(t *testing.T) {
	t.Setenv("LINREG_RESUME", "true")
	t.Setenv("LINREG_CHECKPOINT_PATH", "checkpoints.db")

	s, err := Load("")
	require.NoError(t, err)
	require.True(t, s.Pipeline.Resume)
	require.Empty(t, s.Input.Path)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "LINREG_INPUT=from-dotenv.csv\nLINREG_COMPRESSION=s2\n")
	t.Setenv("LINREG_COMPRESSION", "zstd")
	// registered so the value loaded from the file is removed after the test
	t.Setenv("LINREG_INPUT", "")
	require.NoError(t, os.Unsetenv("LINREG_INPUT"))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))

	s, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "from-dotenv.csv", s.Input.Path)
	require.Equal(t, "zstd", s.Pipeline.Compression, "existing variables win over .env")
}
