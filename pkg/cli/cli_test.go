package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x00002a/cinc/pkg/backend"
	"github.com/0x00002a/cinc/pkg/config"
	"github.com/0x00002a/cinc/pkg/secrets"
)

func TestIndexOfDoubleDash(t *testing.T) {
	assert.Equal(t, 2, indexOfDoubleDash([]string{"--platform", "steam", "--", "run.exe"}))
	assert.Equal(t, -1, indexOfDoubleDash([]string{"--platform", "steam"}))
	assert.Equal(t, 0, indexOfDoubleDash([]string{"--", "run.exe"}))
}

func TestBuildBackendPortFilesystem(t *testing.T) {
	port, err := buildBackendPort(context.Background(), config.BackendConfig{
		Type: config.BackendFilesystem,
		Root: "/tmp/cinc-store",
	}, nil, "game")
	require.NoError(t, err)
	_, ok := port.(*backend.FilesystemBackend)
	assert.True(t, ok)
}

func TestBuildBackendPortWebDAVResolvesInlinePassword(t *testing.T) {
	port, err := buildBackendPort(context.Background(), config.BackendConfig{
		Type:     config.BackendWebDAV,
		URL:      "https://example.com",
		Root:     "/store",
		Username: "alice",
		Password: "secret",
	}, secrets.NewInlineResolver(nil), "game")
	require.NoError(t, err)
	_, ok := port.(*backend.WebDAVBackend)
	assert.True(t, ok)
}

func TestBuildBackendPortUnknownType(t *testing.T) {
	_, err := buildBackendPort(context.Background(), config.BackendConfig{Type: "nope"}, nil, "game")
	require.Error(t, err)
}
