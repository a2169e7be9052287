package signing

import (
	"bytes"
	"crypto/rand"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-pollvm/hash"
)

func TestNewEdSignerFromBuffer(t *testing.T) {
	b := []byte{1, 2, 3}
	_, err := NewEdSigner(WithPrivateKey(b))
	require.ErrorContains(t, err, "invalid key length")

	b = make([]byte, 64)
	_, err = NewEdSigner(WithPrivateKey(b))
	require.ErrorContains(t, err, "private and public do not match")
}

func TestEdSigner_Sign(t *testing.T) {
	prefix := []byte("genesis")
	ed, err := NewEdSigner(WithPrefix(prefix))
	require.NoError(t, err)

	m := make([]byte, 4)
	_, err = rand.Read(m)
	require.NoError(t, err)
	sig := ed.Sign(m)

	digest := hash.Sum(prefix, m)
	require.True(t, ed25519.Verify(ed.PublicKey().Bytes(), digest[:], sig[:]))

	require.True(t, Verify(prefix, ed.PublicKey().Bytes(), m, sig))
	require.False(t, Verify(nil, ed.PublicKey().Bytes(), m, sig), "prefix is part of the message")
	require.False(t, Verify(prefix, []byte{1, 2}, m, sig), "short public key")
}

func TestEdSigner_ValidKeyEncoding(t *testing.T) {
	ed, err := NewEdSigner()
	require.NoError(t, err)
	require.Equal(t, []byte(ed.priv[32:]), ed.PublicKey().Bytes())
}

func TestEdSigner_WithPrivateKey(t *testing.T) {
	ed, err := NewEdSigner()
	require.NoError(t, err)

	ed2, err := NewEdSigner(WithPrivateKey(ed.PrivateKey()))
	require.NoError(t, err)
	require.Equal(t, ed.priv, ed2.priv)
	require.True(t, ed.PublicKey().Equals(ed2.PublicKey()))
}

func TestEdSigner_KeyFromRand(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, 64)
	ed1, err := NewEdSigner(WithKeyFromRand(bytes.NewReader(seed)))
	require.NoError(t, err)
	ed2, err := NewEdSigner(WithKeyFromRand(bytes.NewReader(seed)))
	require.NoError(t, err)
	require.Equal(t, ed1.PrivateKey(), ed2.PrivateKey())
}

func TestEdSigner_File(t *testing.T) {
	t.Run("os", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keys", "identity.key")
		ed, err := NewEdSigner(ToFile(path))
		require.NoError(t, err)
		require.Equal(t, "identity.key", ed.Name())

		loaded, err := NewEdSigner(FromFile(path))
		require.NoError(t, err)
		require.Equal(t, ed.PrivateKey(), loaded.PrivateKey())

		_, err = NewEdSigner(ToFile(path))
		require.ErrorIs(t, err, fs.ErrExist)
	})
	t.Run("memory", func(t *testing.T) {
		mem := afero.NewMemMapFs()
		ed, err := NewEdSigner(WithFilesystem(mem), ToFile("/data/identity.key"))
		require.NoError(t, err)

		loaded, err := NewEdSigner(WithFilesystem(mem), FromFile("/data/identity.key"))
		require.NoError(t, err)
		require.Equal(t, ed.PrivateKey(), loaded.PrivateKey())
	})
	t.Run("corrupted", func(t *testing.T) {
		mem := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(mem, "/bad.key", []byte("0102"), 0o600))
		_, err := NewEdSigner(WithFilesystem(mem), FromFile("/bad.key"))
		require.ErrorContains(t, err, "invalid key size")
	})
	t.Run("missing", func(t *testing.T) {
		_, err := NewEdSigner(WithFilesystem(afero.NewMemMapFs()), FromFile("/missing.key"))
		require.ErrorIs(t, err, fs.ErrNotExist)
	})
	t.Run("conflicting options", func(t *testing.T) {
		_, err := NewEdSigner(ToFile("a"), FromFile("b"))
		require.Error(t, err)
	})
}

func TestPublicKey_ShortString(t *testing.T) {
	pub := NewPublicKey([]byte{1, 2, 3})
	require.Equal(t, "010203", pub.String())
	require.Equal(t, "01020", pub.ShortString())

	pub = NewPublicKey([]byte{1, 2})
	require.Equal(t, pub.String(), pub.ShortString())
}
