package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransport_Validation(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ServerConfig
		wantField string
	}{
		{
			name:      "stdio requires command",
			cfg:       ServerConfig{Transport: TransportStdio},
			wantField: "command",
		},
		{
			name:      "http requires url",
			cfg:       ServerConfig{Transport: TransportHTTP},
			wantField: "url",
		},
		{
			name:      "sse requires url",
			cfg:       ServerConfig{Transport: TransportSSE},
			wantField: "url",
		},
		{
			name:      "no transport and no hints",
			cfg:       ServerConfig{},
			wantField: "transport",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransport("myserver", tt.cfg)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "myserver", cfgErr.Server)
			assert.Equal(t, tt.wantField, cfgErr.Field)
			assert.Contains(t, err.Error(), "myserver")
		})
	}
}

func TestNewTransport_UnknownKind(t *testing.T) {
	_, err := NewTransport("srv", ServerConfig{Transport: "carrier-pigeon", URL: "http://x"})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "transport", cfgErr.Field)
}

func TestNewTransport_KindInference(t *testing.T) {
	tr, err := NewTransport("srv", ServerConfig{Command: "echo"})
	require.NoError(t, err)
	assert.IsType(t, &stdioTransport{}, tr)

	tr, err = NewTransport("srv", ServerConfig{URL: "http://localhost:1234/mcp"})
	require.NoError(t, err)
	assert.IsType(t, &httpTransport{}, tr)

	tr, err = NewTransport("srv", ServerConfig{Transport: TransportSSE, URL: "http://localhost:1234/sse"})
	require.NoError(t, err)
	assert.IsType(t, &sseTransport{}, tr)
}

func TestRetryPolicy_Attempts(t *testing.T) {
	var nilPolicy *RetryPolicy
	assert.Equal(t, 1, nilPolicy.attempts())
	assert.Equal(t, 1, (&RetryPolicy{Enabled: false, MaxAttempts: 5}).attempts())
	assert.Equal(t, 1, (&RetryPolicy{Enabled: true}).attempts())
	assert.Equal(t, 3, (&RetryPolicy{Enabled: true, MaxAttempts: 3}).attempts())
}
