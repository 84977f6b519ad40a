package telemetry

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	tel, err := New(Options{ServiceName: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Close() })

	assert.Equal(t, zerolog.InfoLevel, tel.Logger.GetLevel())
	assert.IsType(t, &statsd.NoOpClient{}, tel.Statsd)
	assert.Nil(t, tel.logFile)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		opts    Options
		wantErr bool
	}{
		{name: "missing service name", opts: Options{}, wantErr: true},
		{name: "bad env log level", env: map[string]string{"LOG_LEVEL": "loud"}, opts: Options{ServiceName: "s"}, wantErr: true},
		{name: "bad env log format", env: map[string]string{"LOG_FORMAT": "xml"}, opts: Options{ServiceName: "s"}, wantErr: true},
		{name: "bad option log level", opts: Options{ServiceName: "s", LogLevel: "loud"}, wantErr: true},
		{name: "non-positive rotation size", env: map[string]string{"LOG_FILE_MAX_SIZE_MB": "0"}, opts: Options{ServiceName: "s"}, wantErr: true},
		{name: "options override env", env: map[string]string{"LOG_LEVEL": "debug"}, opts: Options{ServiceName: "s", LogLevel: "warn"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			tel, err := New(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, zerolog.WarnLevel, tel.Logger.GetLevel())
			require.NoError(t, tel.Close())
		})
	}
}

func TestNew_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	t.Setenv("LOG_FILE", path)

	tel, err := New(Options{ServiceName: "bouncing"})
	require.NoError(t, err)
	require.NotNil(t, tel.logFile)

	logger := tel.GetLogger("engine")
	logger.Info().Int("tick", 3).Msg("tick done")
	require.NoError(t, tel.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	require.True(t, scanner.Scan())

	var line map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
	assert.Equal(t, "bouncing", line["service"])
	assert.Equal(t, "engine", line["component"])
	assert.Equal(t, "tick done", line["message"])
	assert.InDelta(t, 3.0, line["tick"], 0)
	assert.Contains(t, line, "time")
	assert.Contains(t, line, "caller")
}

func TestNew_Statsd(t *testing.T) {
	t.Setenv("STATSD_ADDRESS", "127.0.0.1:8125")

	tel, err := New(Options{ServiceName: "s"})
	require.NoError(t, err)
	assert.IsType(t, &statsd.Client{}, tel.Statsd)
	require.NoError(t, tel.Close())
}

func TestBuildLogger_Pretty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := buildLogger(&buf, LogFormatPretty, zerolog.DebugLevel)
	logger.Debug().Str("k", "v").Msg("hello")
	logger.Trace().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "k=v")
	assert.NotContains(t, out, "hidden")
}

func TestParseLogFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, LogFormatJSON, ParseLogFormat("JSON"))
	assert.Equal(t, LogFormatPretty, ParseLogFormat("pretty"))
	assert.Equal(t, LogFormatUndefined, ParseLogFormat("xml"))
	assert.Equal(t, "pretty", LogFormatPretty.String())
}
