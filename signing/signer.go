package signing

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
	"github.com/spf13/afero"

	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/hash"
)

type edSignerOption struct {
	priv   PrivateKey
	file   string
	load   string
	prefix []byte
	fs     afero.Fs
}

// EdSignerOptionFunc modifies EdSigner.
type EdSignerOptionFunc func(*edSignerOption) error

// WithPrefix sets the prefix used by EdSigner. This is the genesis id of the network.
func WithPrefix(prefix []byte) EdSignerOptionFunc {
	return func(opt *edSignerOption) error {
		opt.prefix = prefix
		return nil
	}
}

// WithFilesystem sets the filesystem used to read identity files.
func WithFilesystem(fs afero.Fs) EdSignerOptionFunc {
	return func(opt *edSignerOption) error {
		opt.fs = fs
		return nil
	}
}

// ToFile writes the private key to a file after creation. The file must not exist.
func ToFile(path string) EdSignerOptionFunc {
	return func(opt *edSignerOption) error {
		if opt.file != "" {
			return errors.New("invalid option ToFile: file already set")
		}
		opt.file = path
		return nil
	}
}

// FromFile loads the private key from a hex encoded file.
func FromFile(path string) EdSignerOptionFunc {
	return func(opt *edSignerOption) error {
		if opt.priv != nil {
			return errors.New("invalid option FromFile: private key already set")
		}
		if opt.file != "" {
			return errors.New("invalid option FromFile: file already set")
		}
		opt.load = path
		return nil
	}
}

// WithPrivateKey sets the private key used by EdSigner.
func WithPrivateKey(priv PrivateKey) EdSignerOptionFunc {
	return func(opt *edSignerOption) error {
		if opt.priv != nil {
			return errors.New("invalid option WithPrivateKey: private key already set")
		}
		if err := checkKeyPair(priv); err != nil {
			return err
		}
		opt.priv = priv
		return nil
	}
}

// WithKeyFromRand sets the private key used by EdSigner using predictable randomness source.
func WithKeyFromRand(rand io.Reader) EdSignerOptionFunc {
	return func(opt *edSignerOption) error {
		_, priv, err := ed25519.GenerateKey(rand)
		if err != nil {
			return fmt.Errorf("could not generate key pair: %w", err)
		}
		opt.priv = priv
		return nil
	}
}

func checkKeyPair(priv PrivateKey) error {
	if len(priv) != PrivateKeySize {
		return fmt.Errorf("invalid key length %d: expected %d", len(priv), PrivateKeySize)
	}
	keyPair := ed25519.NewKeyFromSeed(priv[:32])
	if !bytes.Equal(keyPair[32:], priv.Public().(ed25519.PublicKey)) {
		return errors.New("private and public do not match")
	}
	return nil
}

func readKey(fsys afero.Fs, path string) (PrivateKey, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open identity file at %s: %w", path, err)
	}
	data = bytes.TrimSpace(data)
	if n := hex.DecodedLen(len(data)); n != PrivateKeySize {
		return nil, fmt.Errorf("invalid key size %d/%d for %s", n, PrivateKeySize, filepath.Base(path))
	}
	dst := make([]byte, PrivateKeySize)
	if _, err := hex.Decode(dst, data); err != nil {
		return nil, fmt.Errorf("decoding private key in %s: %w", filepath.Base(path), err)
	}
	priv := PrivateKey(dst)
	if err := checkKeyPair(priv); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return priv, nil
}

func writeKey(fsys afero.Fs, path string, priv PrivateKey) error {
	_, err := fsys.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("stat identity file %s: %w", filepath.Base(path), err)
	default:
		return fmt.Errorf("save identity file %s: %w", filepath.Base(path), fs.ErrExist)
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}
	dst := make([]byte, hex.EncodedLen(len(priv)))
	hex.Encode(dst, priv)
	if _, ok := fsys.(*afero.OsFs); ok {
		if err := atomic.WriteFile(path, bytes.NewReader(dst)); err != nil {
			return fmt.Errorf("failed to write identity file: %w", err)
		}
		return nil
	}
	if err := afero.WriteFile(fsys, path, dst, 0o600); err != nil {
		return fmt.Errorf("failed to write identity file: %w", err)
	}
	return nil
}

// EdSigner represents an ED25519 signer.
type EdSigner struct {
	priv   PrivateKey
	file   string
	prefix []byte
}

// NewEdSigner returns an ed signer. The key is generated unless it is provided
// with WithPrivateKey or FromFile.
func NewEdSigner(opts ...EdSignerOptionFunc) (*EdSigner, error) {
	cfg := &edSignerOption{fs: afero.NewOsFs()}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.load != "" {
		priv, err := readKey(cfg.fs, cfg.load)
		if err != nil {
			return nil, err
		}
		cfg.priv = priv
		cfg.file = cfg.load
	}
	if cfg.priv == nil {
		_, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, fmt.Errorf("could not generate key pair: %w", err)
		}
		cfg.priv = priv
	}
	if cfg.file != "" && cfg.load == "" {
		if err := writeKey(cfg.fs, cfg.file, cfg.priv); err != nil {
			return nil, err
		}
	}
	return &EdSigner{
		priv:   cfg.priv,
		prefix: cfg.prefix,
		file:   cfg.file,
	}, nil
}

// Sign signs blake3 of the prefix followed by the message.
func (es *EdSigner) Sign(m []byte) types.EdSignature {
	digest := hash.Sum(es.prefix, m)
	return types.EdSignature(ed25519.Sign(es.priv, digest[:]))
}

// PublicKey returns the public key of the signer.
func (es *EdSigner) PublicKey() *PublicKey {
	return NewPublicKey(es.priv.Public().(ed25519.PublicKey))
}

// PrivateKey returns private key.
func (es *EdSigner) PrivateKey() PrivateKey {
	return es.priv
}

// Prefix returns the prefix that is hashed together with every signed message.
func (es *EdSigner) Prefix() []byte {
	return es.prefix
}

// Name returns the name of the signer. This is the filename of the identity file.
func (es *EdSigner) Name() string {
	if es.file == "" {
		return ""
	}
	return filepath.Base(es.file)
}

func (es *EdSigner) String() string {
	return es.PublicKey().ShortString()
}
