package node

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-pollvm/api"
	"github.com/spacemeshos/go-pollvm/api/client"
	"github.com/spacemeshos/go-pollvm/cmd"
	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/config"
	"github.com/spacemeshos/go-pollvm/executor"
	"github.com/spacemeshos/go-pollvm/genvm/sdk"
	sdkpoll "github.com/spacemeshos/go-pollvm/genvm/sdk/poll"
	sdkwallet "github.com/spacemeshos/go-pollvm/genvm/sdk/wallet"
	"github.com/spacemeshos/go-pollvm/genvm/templates/poll"
	"github.com/spacemeshos/go-pollvm/log/logtest"
	"github.com/spacemeshos/go-pollvm/signing"
)

func testConfig(tb testing.TB) *config.Config {
	cfg := config.DefaultTestConfig()
	dir := tb.TempDir()
	cfg.DataDirParent = filepath.Join(dir, "data")
	cfg.FileLock = filepath.Join(dir, "LOCK")
	cfg.API.RateLimit = 0
	return &cfg
}

type runningApp struct {
	*App
	client *client.Client
	cancel context.CancelFunc
	errc   chan error
}

func (r *runningApp) stop(tb testing.TB) {
	r.cancel()
	select {
	case err := <-r.errc:
		require.NoError(tb, err)
	case <-time.After(10 * time.Second):
		require.FailNow(tb, "app didn't stop")
	}
}

func startApp(tb testing.TB, cfg *config.Config) *runningApp {
	app := New(WithConfig(cfg), WithLog(logtest.New(tb)))
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- app.Start(ctx) }()
	select {
	case <-app.Started():
	case err := <-errc:
		cancel()
		require.FailNow(tb, "app failed to start", err)
	case <-time.After(10 * time.Second):
		cancel()
		require.FailNow(tb, "app didn't start")
	}
	cl, err := client.New("http://"+app.APIAddress().String(), client.WithLogger(logtest.New(tb)))
	require.NoError(tb, err)
	return &runningApp{App: app, client: cl, cancel: cancel, errc: errc}
}

func TestAppLifecycle(t *testing.T) {
	cfg := testConfig(t)
	r := startApp(t, cfg)
	ctx := context.Background()

	signer, err := signing.NewEdSigner()
	require.NoError(t, err)
	pk := signer.PrivateKey()
	owner := sdkwallet.Address(sdk.Public(pk))

	rst, err := r.client.Submit(ctx, sdkwallet.SelfSpawn(pk, 0))
	require.NoError(t, err)
	require.Equal(t, types.TransactionSuccess.String(), rst.Status)

	args := &poll.SpawnArguments{
		Question:   "ship it?",
		Threshold:  2,
		ExpiryTime: uint64(time.Now().Add(time.Hour).Unix()),
	}
	rst, err = r.client.Submit(ctx, sdkpoll.Create(pk, 1, args))
	require.NoError(t, err)
	require.Equal(t, types.TransactionSuccess.String(), rst.Status)

	address := sdkpoll.Address(owner, 0)
	rst, err = r.client.Submit(ctx, sdkpoll.Vote(pk, 2, address, false))
	require.NoError(t, err)
	require.Equal(t, types.TransactionSuccess.String(), rst.Status)

	rst, err = r.client.Submit(ctx, sdkpoll.Vote(pk, 3, address, true))
	require.NoError(t, err)
	require.Equal(t, types.TransactionFailure.String(), rst.Status)
	require.Contains(t, rst.Message, poll.ErrDuplicateVote.Error())

	_, err = r.client.Submit(ctx, sdkpoll.Vote(pk, 3, address, true, sdk.WithGenesisID(types.Hash20{9})))
	require.ErrorIs(t, err, client.ErrInvalidRequest)

	p, err := r.client.Poll(ctx, address)
	require.NoError(t, err)
	require.EqualValues(t, 1, p.NoVotes)
	require.EqualValues(t, 0, p.YesVotes)
	require.Equal(t, []types.Address{owner}, p.Voters)
	r.stop(t)

	// state and the layer survive restart
	r = startApp(t, cfg)
	defer r.stop(t)
	account, err := r.client.Account(ctx, owner)
	require.NoError(t, err)
	require.EqualValues(t, 4, account.NextNonce)
	require.EqualValues(t, 4, account.Layer)
	require.Equal(t, "wallet", account.Kind)

	records, err := r.client.Polls(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, []api.PollRecord{{Address: address, Creator: owner, Index: 0, Layer: 2}}, records)
}

func TestRevert(t *testing.T) {
	cfg := testConfig(t)
	cfg.Prune.SafeDist = 1
	r := startApp(t, cfg)
	ctx := context.Background()

	signer, err := signing.NewEdSigner()
	require.NoError(t, err)
	pk := signer.PrivateKey()
	owner := sdkwallet.Address(sdk.Public(pk))

	_, err = r.client.Submit(ctx, sdkwallet.SelfSpawn(pk, 0))
	require.NoError(t, err)
	args := &poll.SpawnArguments{Question: "revert?", ExpiryTime: uint64(time.Now().Add(time.Hour).Unix())}
	_, err = r.client.Submit(ctx, sdkpoll.Create(pk, 1, args))
	require.NoError(t, err)
	r.stop(t)

	app := New(WithConfig(cfg), WithLog(logtest.New(t)))
	require.ErrorIs(t, app.Revert(ctx, 5), executor.ErrLayerNotApplied)
	require.ErrorIs(t, app.Revert(ctx, 0), ErrRevertPruned)
	require.NoError(t, app.Revert(ctx, 1))

	r = startApp(t, cfg)
	defer r.stop(t)
	account, err := r.client.Account(ctx, owner)
	require.NoError(t, err)
	require.EqualValues(t, 1, account.NextNonce)
	require.EqualValues(t, 1, account.Layer)
	records, err := r.client.Polls(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, records)
	_, err = r.client.Poll(ctx, sdkpoll.Address(owner, 0))
	require.ErrorIs(t, err, client.ErrNotFound)
}

func execute(tb testing.TB, c *cobra.Command, args ...string) []byte {
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetArgs(args)
	require.NoError(tb, c.Execute(), out.String())
	return out.Bytes()
}

func TestClientCommands(t *testing.T) {
	cfg := testConfig(t)
	r := startApp(t, cfg)
	defer r.stop(t)

	root := &cobra.Command{Use: "pollvm"}
	root.AddCommand(cmd.ClientCommands()...)
	key := filepath.Join(t.TempDir(), "id.key")
	common := []string{"--api", "http://" + r.APIAddress().String(), "--key", key, "--network-hrp", cfg.NetworkHRP}

	execute(t, root, "key", "new", "--file", key, "--network-hrp", cfg.NetworkHRP)
	signer, err := signing.NewEdSigner(signing.FromFile(key))
	require.NoError(t, err)
	owner := sdkwallet.Address(sdk.Public(signer.PrivateKey()))

	var rst api.TransactionResponse
	require.NoError(t, json.Unmarshal(execute(t, root, append([]string{"wallet", "spawn"}, common...)...), &rst))
	require.Equal(t, types.TransactionSuccess.String(), rst.Status)

	out := execute(t, root, append([]string{"poll", "create", "best editor?", "--index", "3", "--threshold", "1"}, common...)...)
	require.NoError(t, json.Unmarshal(out, &rst))
	require.Equal(t, types.TransactionSuccess.String(), rst.Status)

	address := sdkpoll.Address(owner, 3)
	out = execute(t, root, append([]string{"poll", "vote", address.String(), "--no"}, common...)...)
	require.NoError(t, json.Unmarshal(out, &rst))
	require.Equal(t, types.TransactionSuccess.String(), rst.Status)

	var p api.PollResponse
	require.NoError(t, json.Unmarshal(execute(t, root, append([]string{"poll", "show", address.String()}, common...)...), &p))
	require.Equal(t, "best editor?", p.Question)
	require.EqualValues(t, 1, p.NoVotes)
	require.EqualValues(t, 1, p.Threshold)

	var records []api.PollRecord
	require.NoError(t, json.Unmarshal(execute(t, root, append([]string{"poll", "list"}, common...)...), &records))
	require.Len(t, records, 1)
	require.Equal(t, address, records[0].Address)

	var history []api.TransactionResponse
	require.NoError(t, json.Unmarshal(execute(t, root, append([]string{"wallet", "history"}, common...)...), &history))
	require.Len(t, history, 3)
	for i, tx := range history {
		require.EqualValues(t, i, tx.Nonce)
		require.Equal(t, owner, tx.Principal)
	}
}

func TestLock(t *testing.T) {
	cfg := testConfig(t)
	first := New(WithConfig(cfg))
	require.NoError(t, first.Lock())
	second := New(WithConfig(cfg))
	require.Error(t, second.Lock())
	first.Unlock()
	require.NoError(t, second.Lock())
	second.Unlock()
}

func TestSetLogLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.LOGGING.VMLoggerLevel = "warn"
	app := New(WithConfig(cfg))
	require.NoError(t, app.setupDB())
	defer app.closeDB()
	require.NoError(t, app.initServices())

	require.Equal(t, zapcore.WarnLevel, app.LogLevel(VMLogger))
	require.NoError(t, app.SetLogLevel(VMLogger, "debug"))
	require.Equal(t, zapcore.DebugLevel, app.LogLevel(VMLogger))
	require.Error(t, app.SetLogLevel("unknown", "debug"))
	require.Error(t, app.SetLogLevel(VMLogger, "loud"))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[main]
network-hrp = "stest"

[api]
listen = "127.0.0.1:5000"
cors-allowed-origins = ["https://polls.example"]

[metrics.push]
period = "15s"

[vm]
genesis-id = "0x0100000000000000000000000000000000000000"
`), 0o600))
	cfg := config.DefaultConfig()
	require.NoError(t, loadConfig(&cfg, path))
	require.Equal(t, "stest", cfg.NetworkHRP)
	require.Equal(t, "127.0.0.1:5000", cfg.API.Listen)
	require.Equal(t, []string{"https://polls.example"}, cfg.API.CorsAllowedOrigins)
	require.Equal(t, 15*time.Second, cfg.Metrics.Push.Period)
	require.Equal(t, types.Hash20{1}, cfg.VM.GenesisID)
	require.Equal(t, config.DefaultConfig().API.RateBurst, cfg.API.RateBurst)

	require.NoError(t, os.WriteFile(path, []byte("[api]\nunknown = 1\n"), 0o600))
	cfg = config.DefaultConfig()
	require.Error(t, loadConfig(&cfg, path))
}
