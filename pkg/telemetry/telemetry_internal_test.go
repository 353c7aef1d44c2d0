package telemetry

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, LogFormatJSON, ParseLogFormat("json"))
	assert.Equal(t, LogFormatPretty, ParseLogFormat("PRETTY"))
	assert.Equal(t, LogFormatUndefined, ParseLogFormat("xml"))
	assert.Equal(t, "undefined", LogFormat(42).String())
}

func TestNew_FromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")

	var buf bytes.Buffer
	tel, err := newWithWriter(Options{ServiceName: "test"}, &buf)
	require.NoError(t, err)

	logger := tel.GetLogger("container")
	logger.Info().Msg("filtered out")
	logger.Warn().Uint32("owner", 3).Msg("component not in container")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "test.container", entry["component"])
	assert.InDelta(t, 3, entry["owner"], 0)
}

func TestNew_OptionsOverrideEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	var buf bytes.Buffer
	tel, err := newWithWriter(Options{ServiceName: "test", LogLevel: "debug"}, &buf)
	require.NoError(t, err)

	tel.Logger.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		envs   map[string]string
		opts   Options
		errMsg string
	}{
		{
			name:   "invalid level in env",
			envs:   map[string]string{"LOG_LEVEL": "loud"},
			opts:   Options{ServiceName: "test"},
			errMsg: "invalid log level",
		},
		{
			name:   "invalid format in env",
			envs:   map[string]string{"LOG_FORMAT": "xml"},
			opts:   Options{ServiceName: "test"},
			errMsg: "invalid log format",
		},
		{
			name:   "missing service name",
			opts:   Options{},
			errMsg: "service name cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envs {
				t.Setenv(k, v)
			}
			_, err := newWithWriter(tt.opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
