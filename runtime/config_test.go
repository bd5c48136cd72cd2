package runtime

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-bridge/errors"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
engine:
  memory_limit_pages: 256
  close_on_context_done: true
string_chunk_size: 1000
disable_weak_refs: true
`))
	require.NoError(t, err)
	assert.Equal(t, uint32(256), cfg.Engine.MemoryLimitPages)
	assert.True(t, cfg.Engine.CloseOnContextDone)
	assert.Equal(t, 1000, cfg.StringChunkSize)
	assert.False(t, cfg.Features().WeakRefs)
	assert.True(t, cfg.Features().SharedBuffers)

	empty, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, Config{}, empty)
}

func TestParseConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind errors.Kind
	}{
		{"unknown key", "chunk: 5\n", errors.KindInvalidData},
		{"bad yaml", "engine: [\n", errors.KindInvalidData},
		{"chunk too large", "string_chunk_size: 100000\n", errors.KindInvalidInput},
		{"negative chunk", "string_chunk_size: -1\n", errors.KindInvalidInput},
		{"memory limit", "engine:\n  memory_limit_pages: 70000\n", errors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: tt.kind}), err.Error())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("string_chunk_size: 64\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.StringChunkSize)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindNotFound}))
}

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := New(context.Background(), WithConfig(Config{StringChunkSize: -5}))
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput}))
}
