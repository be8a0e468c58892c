package secrets_test

import (
	"testing"

	"github.com/0x00002a/cinc/pkg/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineRefResolvesDirectly(t *testing.T) {
	r := secrets.NewInlineResolver(nil)
	v, err := r.Resolve(secrets.Ref{Inline: "plain-password"})
	require.NoError(t, err)
	assert.Equal(t, "plain-password", v)
}

func TestKeyRefResolvesFromStore(t *testing.T) {
	r := secrets.NewInlineResolver(map[string]string{"webdav-psk": "s3cret"})
	v, err := r.Resolve(secrets.Ref{KeyRef: "webdav-psk"})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)
}

func TestMissingKeyRefErrors(t *testing.T) {
	r := secrets.NewInlineResolver(nil)
	_, err := r.Resolve(secrets.Ref{KeyRef: "nope"})
	require.ErrorIs(t, err, secrets.ErrSecretNotFound)
}
