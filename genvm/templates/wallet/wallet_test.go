package wallet

import (
	"bytes"
	"testing"

	"github.com/spacemeshos/go-scale"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/spacemeshos/go-pollvm/codec"
	"github.com/spacemeshos/go-pollvm/genvm/core"
	"github.com/spacemeshos/go-pollvm/genvm/core/mocks"
	"github.com/spacemeshos/go-pollvm/signing"
)

func FuzzVerify(f *testing.F) {
	f.Fuzz(func(t *testing.T, raw []byte) {
		ctrl := gomock.NewController(t)
		host := mocks.NewMockHost(ctrl)
		host.EXPECT().GetGenesisID().Return(core.Hash20{}).AnyTimes()
		wallet := Wallet{}
		dec := scale.NewDecoder(bytes.NewReader(raw))
		wallet.Verify(host, raw, dec)
	})
}

func TestVerify(t *testing.T) {
	genesis := core.Hash20{1, 2, 3}
	signer, err := signing.NewEdSigner(signing.WithPrefix(genesis[:]))
	require.NoError(t, err)
	wallet := Wallet{PublicKey: core.PublicKey(signer.PublicKey().Array())}

	ctrl := gomock.NewController(t)
	host := mocks.NewMockHost(ctrl)
	host.EXPECT().GetGenesisID().Return(genesis).AnyTimes()

	verify := func(raw []byte) bool {
		return wallet.Verify(host, raw, scale.NewDecoder(bytes.NewReader(raw[len(raw)-64:])))
	}

	body := []byte("transaction body")
	sig := signer.Sign(body)
	require.True(t, verify(append(bytes.Clone(body), sig[:]...)))

	t.Run("modified body", func(t *testing.T) {
		modified := bytes.Clone(body)
		modified[0]++
		require.False(t, verify(append(modified, sig[:]...)))
	})
	t.Run("other genesis", func(t *testing.T) {
		other, err := signing.NewEdSigner(signing.WithPrivateKey(signer.PrivateKey()))
		require.NoError(t, err)
		osig := other.Sign(body)
		require.False(t, verify(append(bytes.Clone(body), osig[:]...)))
	})
	t.Run("short", func(t *testing.T) {
		require.False(t, wallet.Verify(host, []byte{1}, scale.NewDecoder(bytes.NewReader([]byte{1}))))
	})
}

func TestHandler(t *testing.T) {
	h := &handler{}
	require.Nil(t, h.Args(1))
	args, ok := h.Args(core.MethodSpawn).(*SpawnArguments)
	require.True(t, ok)
	args.PublicKey = core.PublicKey{1, 2, 3}

	template, err := h.New(nil, args)
	require.NoError(t, err)
	state, err := codec.Encode(template)
	require.NoError(t, err)
	loaded, err := h.Load(state)
	require.NoError(t, err)
	require.Equal(t, template, loaded)

	_, err = h.Load([]byte{1})
	require.ErrorIs(t, err, core.ErrInternal)

	require.Equal(t, core.ComputePrincipal(TemplateAddress, args), h.SpawnAddress(core.Address{5}, args))
	require.Equal(t, h.SpawnAddress(core.Address{5}, args), h.SpawnAddress(core.Address{6}, args))
}

func TestExec(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := mocks.NewMockHost(ctrl)
	h := &handler{}
	args := &SpawnArguments{}
	host.EXPECT().Spawn(args).Return(core.Address{1}, nil)
	require.NoError(t, h.Exec(host, core.MethodSpawn, args))
	require.ErrorIs(t, h.Exec(host, 1, args), core.ErrMalformed)
}
