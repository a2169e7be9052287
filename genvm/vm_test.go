package vm

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/genvm/core"
	"github.com/spacemeshos/go-pollvm/genvm/sdk"
	sdkpoll "github.com/spacemeshos/go-pollvm/genvm/sdk/poll"
	sdkwallet "github.com/spacemeshos/go-pollvm/genvm/sdk/wallet"
	"github.com/spacemeshos/go-pollvm/genvm/templates/poll"
	"github.com/spacemeshos/go-pollvm/genvm/templates/wallet"
	"github.com/spacemeshos/go-pollvm/log/logtest"
	"github.com/spacemeshos/go-pollvm/signing"
	"github.com/spacemeshos/go-pollvm/sql"
	"github.com/spacemeshos/go-pollvm/sql/polls"
	"github.com/spacemeshos/go-pollvm/sql/transactions"
)

var testGenesis = types.Hash20{1, 2, 3, 4}

func newTester(tb testing.TB) *tester {
	return &tester{
		TB:  tb,
		VM:  New(sql.InMemory(), WithLogger(logtest.New(tb)), WithConfig(Config{GenesisID: testGenesis})),
		now: time.Unix(1000, 0),
	}
}

type tester struct {
	testing.TB
	*VM

	lid types.LayerID
	now time.Time

	pks       []signing.PrivateKey
	addresses []core.Address
	nonces    []uint64
}

func (t *tester) persistent() *tester {
	db, err := sql.Open("file:" + filepath.Join(t.TempDir(), "test.sql"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	t.VM = New(db, WithLogger(logtest.New(t)), WithConfig(Config{GenesisID: testGenesis}))
	return t
}

func (t *tester) addAccounts(n int) *tester {
	for i := 0; i < n; i++ {
		signer, err := signing.NewEdSigner()
		require.NoError(t, err)
		t.pks = append(t.pks, signer.PrivateKey())
		t.addresses = append(t.addresses, sdkwallet.Address(sdk.Public(signer.PrivateKey())))
		t.nonces = append(t.nonces, 0)
	}
	return t
}

func (t *tester) nextNonce(i int) uint64 {
	nonce := t.nonces[i]
	t.nonces[i]++
	return nonce
}

func (t *tester) selfSpawn(i int) types.RawTx {
	return types.NewRawTx(sdkwallet.SelfSpawn(t.pks[i], t.nextNonce(i), sdk.WithGenesisID(testGenesis)))
}

func (t *tester) spawnAll() *tester {
	txs := make([]types.RawTx, 0, len(t.pks))
	for i := range t.pks {
		txs = append(txs, t.selfSpawn(i))
	}
	skipped, results := t.apply(txs...)
	require.Empty(t, skipped)
	for _, rst := range results {
		require.Equal(t, types.TransactionSuccess, rst.Status, rst.Message)
	}
	return t
}

func (t *tester) createPoll(i int, args *poll.SpawnArguments) types.RawTx {
	return types.NewRawTx(sdkpoll.Create(t.pks[i], t.nextNonce(i), args, sdk.WithGenesisID(testGenesis)))
}

func (t *tester) vote(i int, target core.Address, choice bool) types.RawTx {
	return types.NewRawTx(sdkpoll.Vote(t.pks[i], t.nextNonce(i), target, choice, sdk.WithGenesisID(testGenesis)))
}

func (t *tester) apply(txs ...types.RawTx) ([]types.TransactionID, []types.TransactionWithResult) {
	t.lid++
	skipped, results, err := t.Apply(ApplyContext{Layer: t.lid, Time: t.now}, txs)
	require.NoError(t, err)
	return skipped, results
}

func (t *tester) poll(address core.Address) *poll.Poll {
	account, err := t.Account(address)
	require.NoError(t, err)
	require.True(t, account.Spawned(), "poll %s is not spawned", address)
	require.Equal(t, poll.TemplateAddress, *account.TemplateAddress)
	p, err := poll.Decode(account.State)
	require.NoError(t, err)
	return p
}

func requireStatus(tb testing.TB, status types.TransactionStatus, rst types.TransactionWithResult) {
	tb.Helper()
	require.Equal(tb, status, rst.Status, rst.Message)
}

func TestSelfSpawn(t *testing.T) {
	tt := newTester(t).addAccounts(2)
	skipped, results := tt.apply(tt.selfSpawn(0))
	require.Empty(t, skipped)
	require.Len(t, results, 1)
	requireStatus(t, types.TransactionSuccess, results[0])
	require.Equal(t, []types.Address{tt.addresses[0]}, results[0].Addresses)
	require.Equal(t, tt.lid, results[0].Layer)

	account, err := tt.Account(tt.addresses[0])
	require.NoError(t, err)
	require.Equal(t, wallet.TemplateAddress, *account.TemplateAddress)
	require.EqualValues(t, 1, account.NextNonce)
	require.Equal(t, tt.lid, account.Layer)

	account, err = tt.Account(tt.addresses[1])
	require.NoError(t, err)
	require.Zero(t, account.NextNonce)

	stored, err := transactions.Get(tt.db, results[0].ID)
	require.NoError(t, err)
	require.Equal(t, results[0].TransactionResult, stored.TransactionResult)
}

func TestPollLifecycle(t *testing.T) {
	tt := newTester(t).addAccounts(4).spawnAll()
	args := &poll.SpawnArguments{
		Question:   "is the threshold respected?",
		PollIndex:  0,
		Threshold:  2,
		ExpiryTime: uint64(tt.now.Unix()) + 100,
	}
	address := sdkpoll.Address(tt.addresses[0], 0)

	skipped, results := tt.apply(tt.createPoll(0, args))
	require.Empty(t, skipped)
	requireStatus(t, types.TransactionSuccess, results[0])
	require.Equal(t, []types.Address{tt.addresses[0], address}, results[0].Addresses)

	created := tt.poll(address)
	require.Equal(t, args.Question, created.Question)
	require.Equal(t, tt.addresses[0], created.Creator)
	require.EqualValues(t, tt.now.Unix(), created.CreatedTime)
	require.Zero(t, created.Total())

	record, err := polls.Get(tt.db, address)
	require.NoError(t, err)
	require.Equal(t, tt.addresses[0], record.Creator)
	require.Equal(t, tt.lid, record.Layer)

	skipped, results = tt.apply(
		tt.vote(1, address, true),
		tt.vote(2, address, false),
		tt.vote(3, address, true),
	)
	require.Empty(t, skipped)
	require.Len(t, results, 3)
	requireStatus(t, types.TransactionSuccess, results[0])
	require.Equal(t, []types.Address{tt.addresses[1], address}, results[0].Addresses)
	requireStatus(t, types.TransactionSuccess, results[1])
	requireStatus(t, types.TransactionFailure, results[2])
	require.Contains(t, results[2].Message, poll.ErrThresholdExceeded.Error())
	require.Equal(t, []types.Address{tt.addresses[3]}, results[2].Addresses)

	updated := tt.poll(address)
	require.EqualValues(t, 1, updated.YesVotes)
	require.EqualValues(t, 1, updated.NoVotes)
	require.Equal(t, []types.Address{tt.addresses[1], tt.addresses[2]}, updated.Register)
	require.False(t, updated.Voted(tt.addresses[3]))

	// failed call still consumes the nonce
	account, err := tt.Account(tt.addresses[3])
	require.NoError(t, err)
	require.Equal(t, tt.nonces[3], account.NextNonce)
}

func TestSpawnAndVoteInOneLayer(t *testing.T) {
	tt := newTester(t).addAccounts(2).spawnAll()
	address := sdkpoll.Address(tt.addresses[0], 7)
	skipped, results := tt.apply(
		tt.createPoll(0, &poll.SpawnArguments{Question: "same layer", PollIndex: 7, ExpiryTime: 5000}),
		tt.vote(1, address, true),
		tt.vote(0, address, false),
	)
	require.Empty(t, skipped)
	for _, rst := range results {
		requireStatus(t, types.TransactionSuccess, rst)
	}
	p := tt.poll(address)
	require.EqualValues(t, 2, p.Total())
	require.EqualValues(t, 1, p.YesVotes)
}

func TestDuplicatePollIndex(t *testing.T) {
	tt := newTester(t).addAccounts(2).spawnAll()
	args := &poll.SpawnArguments{Question: "first", PollIndex: 3, ExpiryTime: 5000}
	_, results := tt.apply(tt.createPoll(0, args))
	requireStatus(t, types.TransactionSuccess, results[0])

	_, results = tt.apply(tt.createPoll(0, &poll.SpawnArguments{Question: "second", PollIndex: 3, ExpiryTime: 6000}))
	requireStatus(t, types.TransactionFailure, results[0])
	require.Contains(t, results[0].Message, core.ErrSpawned.Error())
	require.Equal(t, "first", tt.poll(sdkpoll.Address(tt.addresses[0], 3)).Question)

	// the same index is available to other creators
	_, results = tt.apply(tt.createPoll(1, args))
	requireStatus(t, types.TransactionSuccess, results[0])

	count, err := polls.Count(tt.db)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	records, err := polls.ByCreator(tt.db, tt.addresses[0])
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestDuplicateVote(t *testing.T) {
	tt := newTester(t).addAccounts(2).spawnAll()
	address := sdkpoll.Address(tt.addresses[0], 0)
	tt.apply(tt.createPoll(0, &poll.SpawnArguments{Question: "q", ExpiryTime: 5000}))

	_, results := tt.apply(tt.vote(1, address, true), tt.vote(1, address, false))
	requireStatus(t, types.TransactionSuccess, results[0])
	requireStatus(t, types.TransactionFailure, results[1])
	require.Contains(t, results[1].Message, poll.ErrDuplicateVote.Error())

	p := tt.poll(address)
	require.EqualValues(t, 1, p.YesVotes)
	require.Zero(t, p.NoVotes)
}

func TestExpiredPoll(t *testing.T) {
	tt := newTester(t).addAccounts(2).spawnAll()
	address := sdkpoll.Address(tt.addresses[0], 0)
	expiry := uint64(tt.now.Unix()) + 10
	tt.apply(tt.createPoll(0, &poll.SpawnArguments{Question: "q", ExpiryTime: expiry}))

	tt.now = time.Unix(int64(expiry), 0)
	_, results := tt.apply(tt.vote(1, address, true))
	requireStatus(t, types.TransactionFailure, results[0])
	require.Contains(t, results[0].Message, poll.ErrPollExpired.Error())
	require.Zero(t, tt.poll(address).Total())
}

func TestCreateValidation(t *testing.T) {
	for _, tc := range []struct {
		desc string
		args poll.SpawnArguments
		err  error
	}{
		{
			desc: "question too long",
			args: poll.SpawnArguments{Question: strings.Repeat("a", poll.MaxQuestionLength+1), ExpiryTime: 5000},
			err:  poll.ErrQuestionTooLong,
		},
		{
			desc: "expiry in the past",
			args: poll.SpawnArguments{Question: "q", ExpiryTime: 999},
			err:  poll.ErrInvalidExpiry,
		},
		{
			desc: "expiry now",
			args: poll.SpawnArguments{Question: "q", ExpiryTime: 1000},
			err:  poll.ErrInvalidExpiry,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			tt := newTester(t).addAccounts(1).spawnAll()
			_, results := tt.apply(tt.createPoll(0, &tc.args))
			requireStatus(t, types.TransactionFailure, results[0])
			require.Contains(t, results[0].Message, tc.err.Error())

			account, err := tt.Account(sdkpoll.Address(tt.addresses[0], tc.args.PollIndex))
			require.NoError(t, err)
			require.False(t, account.Spawned())
			count, err := polls.Count(tt.db)
			require.NoError(t, err)
			require.Zero(t, count)

			account, err = tt.Account(tt.addresses[0])
			require.NoError(t, err)
			require.EqualValues(t, 2, account.NextNonce)
		})
	}
}

func TestSkipped(t *testing.T) {
	tt := newTester(t).addAccounts(3).spawnAll()
	address := sdkpoll.Address(tt.addresses[0], 0)
	tt.apply(tt.createPoll(0, &poll.SpawnArguments{Question: "q", ExpiryTime: 5000}))

	for _, tc := range []struct {
		desc string
		tx   func() types.RawTx
	}{
		{
			desc: "wrong nonce",
			tx: func() types.RawTx {
				return types.NewRawTx(sdkpoll.Vote(tt.pks[1], tt.nonces[1]+1, address, true,
					sdk.WithGenesisID(testGenesis)))
			},
		},
		{
			desc: "replayed nonce",
			tx: func() types.RawTx {
				return types.NewRawTx(sdkpoll.Vote(tt.pks[1], tt.nonces[1]-1, address, true,
					sdk.WithGenesisID(testGenesis)))
			},
		},
		{
			desc: "other genesis",
			tx: func() types.RawTx {
				return types.NewRawTx(sdkpoll.Vote(tt.pks[1], tt.nonces[1], address, true,
					sdk.WithGenesisID(types.Hash20{9})))
			},
		},
		{
			desc: "corrupted signature",
			tx: func() types.RawTx {
				raw := sdkpoll.Vote(tt.pks[1], tt.nonces[1], address, true, sdk.WithGenesisID(testGenesis))
				raw[len(raw)-1]++
				return types.NewRawTx(raw)
			},
		},
		{
			desc: "signed by other key",
			tx: func() types.RawTx {
				body := sdkpoll.Vote(tt.pks[1], tt.nonces[1], address, true, sdk.WithGenesisID(testGenesis))
				body = body[:len(body)-64]
				return types.NewRawTx(sdk.Sign(tt.pks[2], bytes.Clone(body), sdk.WithGenesisID(testGenesis)))
			},
		},
		{
			desc: "principal not spawned",
			tx: func() types.RawTx {
				other := newTester(t).addAccounts(1)
				return types.NewRawTx(sdkpoll.Vote(other.pks[0], 0, address, true, sdk.WithGenesisID(testGenesis)))
			},
		},
		{
			desc: "target not spawned",
			tx: func() types.RawTx {
				return types.NewRawTx(sdkpoll.Vote(tt.pks[1], tt.nonces[1], core.Address{1, 1}, true,
					sdk.WithGenesisID(testGenesis)))
			},
		},
		{
			desc: "unknown method",
			tx: func() types.RawTx {
				return types.NewRawTx(sdk.Call(tt.pks[1], tt.addresses[1], address, 9, tt.nonces[1],
					&poll.VoteArguments{}, sdk.WithGenesisID(testGenesis)))
			},
		},
		{
			desc: "call self",
			tx: func() types.RawTx {
				return types.NewRawTx(sdk.Call(tt.pks[1], tt.addresses[1], tt.addresses[1], poll.MethodVote,
					tt.nonces[1], &poll.VoteArguments{}, sdk.WithGenesisID(testGenesis)))
			},
		},
		{
			desc: "unknown template",
			tx: func() types.RawTx {
				return types.NewRawTx(sdk.Spawn(tt.pks[1], tt.addresses[1], core.Address{7}, tt.nonces[1],
					&poll.VoteArguments{}, sdk.WithGenesisID(testGenesis)))
			},
		},
		{
			desc: "poll as principal",
			tx: func() types.RawTx {
				return types.NewRawTx(sdk.Call(tt.pks[0], address, tt.addresses[1], 1, 0,
					&poll.VoteArguments{}, sdk.WithGenesisID(testGenesis)))
			},
		},
		{
			desc: "garbage",
			tx: func() types.RawTx {
				return types.NewRawTx([]byte{0, 1, 2})
			},
		},
		{
			desc: "unsupported version",
			tx: func() types.RawTx {
				raw := sdkpoll.Vote(tt.pks[1], tt.nonces[1], address, true, sdk.WithGenesisID(testGenesis))
				raw[0] = 4
				return types.NewRawTx(raw)
			},
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			tx := tc.tx()
			skipped, results := tt.apply(tx)
			require.Equal(t, []types.TransactionID{tx.ID}, skipped)
			require.Empty(t, results)
			has, err := transactions.Has(tt.db, tx.ID)
			require.NoError(t, err)
			require.False(t, has)
			require.Zero(t, tt.poll(address).Total())
		})
	}
}

func TestRevert(t *testing.T) {
	tt := newTester(t).persistent().addAccounts(2).spawnAll()
	spawned := tt.lid
	address := sdkpoll.Address(tt.addresses[0], 0)
	_, results := tt.apply(tt.createPoll(0, &poll.SpawnArguments{Question: "q", ExpiryTime: 5000}))
	created := results[0]
	_, results = tt.apply(tt.vote(1, address, true))
	voted := results[0]

	require.NoError(t, tt.Revert(spawned))

	account, err := tt.Account(address)
	require.NoError(t, err)
	require.False(t, account.Spawned())
	for _, id := range []types.TransactionID{created.ID, voted.ID} {
		has, err := transactions.Has(tt.db, id)
		require.NoError(t, err)
		require.False(t, has)
	}
	_, err = polls.Get(tt.db, address)
	require.ErrorIs(t, err, sql.ErrNotFound)
	account, err = tt.Account(tt.addresses[0])
	require.NoError(t, err)
	require.EqualValues(t, 1, account.NextNonce)

	// same transactions can be applied again after revert
	tt.lid = spawned
	tt.nonces[0], tt.nonces[1] = 1, 1
	_, results = tt.apply(tt.createPoll(0, &poll.SpawnArguments{Question: "q", ExpiryTime: 5000}))
	requireStatus(t, types.TransactionSuccess, results[0])
	_, results = tt.apply(tt.vote(1, address, false))
	requireStatus(t, types.TransactionSuccess, results[0])
	require.EqualValues(t, 1, tt.poll(address).NoVotes)
}

func TestValidation(t *testing.T) {
	tt := newTester(t).addAccounts(2)
	spawn := tt.selfSpawn(0)

	t.Run("self spawn", func(t *testing.T) {
		req := tt.Validation(spawn)
		header, err := req.Parse()
		require.NoError(t, err)
		require.Equal(t, tt.addresses[0], header.Principal)
		require.Equal(t, wallet.TemplateAddress, header.TemplateAddress)
		require.EqualValues(t, core.MethodSpawn, header.Method)
		require.Zero(t, header.Nonce)
		require.True(t, req.Verify())
	})
	t.Run("not spawned", func(t *testing.T) {
		req := tt.Validation(tt.vote(1, core.Address{1}, true))
		_, err := req.Parse()
		require.ErrorIs(t, err, core.ErrNotSpawned)
	})
	t.Run("malformed", func(t *testing.T) {
		req := tt.Validation(types.NewRawTx([]byte{0}))
		_, err := req.Parse()
		require.ErrorIs(t, err, core.ErrMalformed)
	})
	t.Run("too large", func(t *testing.T) {
		req := tt.Validation(types.NewRawTx(make([]byte, types.MaxRawTxSize+1)))
		_, err := req.Parse()
		require.ErrorIs(t, err, core.ErrMalformed)
	})
	t.Run("wrong signature", func(t *testing.T) {
		raw := bytes.Clone(spawn.Raw)
		raw[len(raw)-1]++
		req := tt.Validation(types.NewRawTx(raw))
		_, err := req.Parse()
		require.NoError(t, err)
		require.False(t, req.Verify())
	})
	t.Run("vote", func(t *testing.T) {
		_, results := tt.apply(spawn)
		requireStatus(t, types.TransactionSuccess, results[0])
		tt.apply(tt.createPoll(0, &poll.SpawnArguments{Question: "q", ExpiryTime: 5000}))
		target := sdkpoll.Address(tt.addresses[0], 0)

		req := tt.Validation(types.NewRawTx(sdkpoll.Vote(tt.pks[0], tt.nonces[0], target, true,
			sdk.WithGenesisID(testGenesis))))
		header, err := req.Parse()
		require.NoError(t, err)
		require.Equal(t, target, header.Target)
		require.EqualValues(t, poll.MethodVote, header.TargetMethod)
		require.EqualValues(t, core.MethodCall, header.Method)
		require.True(t, req.Verify())
	})
	t.Run("verify before parse", func(t *testing.T) {
		require.Panics(t, func() { tt.Validation(spawn).Verify() })
	})
}

func TestRandomVotes(t *testing.T) {
	const voters = 20
	tt := newTester(t).addAccounts(voters).spawnAll()
	address := sdkpoll.Address(tt.addresses[0], 0)
	tt.apply(tt.createPoll(0, &poll.SpawnArguments{Question: "random", Threshold: 15, ExpiryTime: 5000}))

	var txs []types.RawTx
	for i := 0; i < 3*voters; i++ {
		txs = append(txs, tt.vote(rand.Intn(voters), address, rand.Intn(2) == 0))
	}
	skipped, results := tt.apply(txs...)
	require.Empty(t, skipped)

	succeeded := 0
	for _, rst := range results {
		if rst.Status == types.TransactionSuccess {
			succeeded++
		}
	}
	p := tt.poll(address)
	require.EqualValues(t, succeeded, p.Total())
	require.EqualValues(t, len(p.Register), p.Total())
	require.LessOrEqual(t, p.Total(), p.Threshold)
	seen := map[types.Address]struct{}{}
	for _, voter := range p.Register {
		require.NotContains(t, seen, voter)
		seen[voter] = struct{}{}
	}
}

func FuzzParse(f *testing.F) {
	tt := newTester(f).addAccounts(1)
	f.Add(tt.selfSpawn(0).Raw)
	f.Fuzz(func(t *testing.T, raw []byte) {
		req := tt.Validation(types.NewRawTx(raw))
		if _, err := req.Parse(); err == nil {
			req.Verify()
		}
	})
}

func TestTruncate(t *testing.T) {
	for _, tc := range []struct {
		desc  string
		msg   string
		limit int
		rst   string
	}{
		{desc: "short", msg: "abc", limit: 5, rst: "abc"},
		{desc: "ascii", msg: "abcdef", limit: 4, rst: "abcd"},
		{desc: "rune boundary", msg: "abéc", limit: 4, rst: "abé"},
		{desc: "inside rune", msg: "abéc", limit: 3, rst: "ab"},
		{desc: "inside wide rune", msg: "世界", limit: 5, rst: "世"},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			rst := truncate(tc.msg, tc.limit)
			require.Equal(t, tc.rst, rst)
			require.True(t, utf8.ValidString(rst))
		})
	}
}

func TestApplyMetrics(t *testing.T) {
	tt := newTester(t).addAccounts(1)
	success := testutil.ToFloat64(successfulTxs)
	failure := testutil.ToFloat64(failedTxs)
	skipped := testutil.ToFloat64(skippedTxs)

	tt.apply(tt.selfSpawn(0))
	tt.apply(tt.createPoll(0, &poll.SpawnArguments{Question: "q", ExpiryTime: 10}))
	tt.apply(types.NewRawTx([]byte{0, 1, 2}))

	require.Equal(t, success+1, testutil.ToFloat64(successfulTxs))
	require.Equal(t, failure+1, testutil.ToFloat64(failedTxs))
	require.Equal(t, skipped+1, testutil.ToFloat64(skippedTxs))
}
