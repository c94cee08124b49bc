package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "topichub", cfg.Namespace)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, 5*time.Second, cfg.CallTimeout)
	assert.Equal(t, 256, cfg.MailboxSize)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.NotEmpty(t, cfg.NodeID, "a node ID is generated when none is set")
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "topichub", cfg.Tracing.ServiceName)
}

func TestParse_FromEnvironment(t *testing.T) {
	t.Setenv("TOPICHUB_NAMESPACE", "chat")
	t.Setenv("TOPICHUB_BACKEND", "replicated")
	t.Setenv("TOPICHUB_NODE_ID", "node-7")
	t.Setenv("TOPICHUB_CALL_TIMEOUT", "250ms")
	t.Setenv("PUBSUB_TRACING_ENABLED", "true")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "chat", cfg.Namespace)
	assert.Equal(t, BackendReplicated, cfg.Backend)
	assert.Equal(t, "node-7", cfg.NodeID)
	assert.Equal(t, 250*time.Millisecond, cfg.CallTimeout)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown backend", "TOPICHUB_BACKEND", "etcd"},
		{"namespace with separator", "TOPICHUB_NAMESPACE", "a:b"},
		{"zero timeout", "TOPICHUB_CALL_TIMEOUT", "0s"},
		{"unparsable timeout", "TOPICHUB_CALL_TIMEOUT", "soon"},
		{"empty mailbox", "TOPICHUB_MAILBOX_SIZE", "0"},
		{"unknown log level", "LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
