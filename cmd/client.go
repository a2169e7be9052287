package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spacemeshos/go-pollvm/api/client"
	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/genvm/sdk"
	sdkpoll "github.com/spacemeshos/go-pollvm/genvm/sdk/poll"
	sdkwallet "github.com/spacemeshos/go-pollvm/genvm/sdk/wallet"
	"github.com/spacemeshos/go-pollvm/genvm/templates/poll"
	"github.com/spacemeshos/go-pollvm/signing"
)

const defaultKeyFile = "identity.key"

type clientFlags struct {
	api        string
	key        string
	genesisID  types.Hash20
	networkHRP string
	timeout    time.Duration
}

func (f *clientFlags) add(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.api, "api", "http://127.0.0.1:9070", "address of the node api")
	flagSet.StringVarP(&f.key, "key", "k", defaultKeyFile, "path to the identity file")
	flagSet.Var(&f.genesisID, "genesis-id", "genesis id (hex) of the node")
	flagSet.StringVar(&f.networkHRP, "network-hrp", types.NetworkHRP(), "human readable prefix of the addresses")
	flagSet.DurationVar(&f.timeout, "timeout", 30*time.Second, "timeout for the request")
}

func (f *clientFlags) client() (*client.Client, error) {
	types.SetNetworkHRP(f.networkHRP)
	return client.New(f.api)
}

func (f *clientFlags) signer() (*signing.EdSigner, error) {
	signer, err := signing.NewEdSigner(signing.FromFile(f.key))
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return signer, nil
}

func (f *clientFlags) principal(signer *signing.EdSigner) types.Address {
	return sdkwallet.Address(sdk.Public(signer.PrivateKey()))
}

func (f *clientFlags) context(c *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), f.timeout)
}

// submit signs the transaction with the next nonce of the principal and waits for the result.
func (f *clientFlags) submit(c *cobra.Command, build func(signing.PrivateKey, uint64) []byte) error {
	cl, err := f.client()
	if err != nil {
		return err
	}
	signer, err := f.signer()
	if err != nil {
		return err
	}
	ctx, cancel := f.context(c)
	defer cancel()
	account, err := cl.Account(ctx, f.principal(signer))
	if err != nil {
		return err
	}
	rst, err := cl.Submit(ctx, build(signer.PrivateKey(), account.NextNonce))
	if err != nil {
		return err
	}
	return printJSON(c.OutOrStdout(), rst)
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// ClientCommands returns commands that manage keys and talk to a running node.
func ClientCommands() []*cobra.Command {
	return []*cobra.Command{keyCommand(), walletCommand(), pollCommand()}
}

func keyCommand() *cobra.Command {
	key := &cobra.Command{Use: "key", Short: "manage identity keys"}
	var (
		file string
		hrp  string
	)
	create := &cobra.Command{
		Use:   "new",
		Short: "create new identity file",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			types.SetNetworkHRP(hrp)
			signer, err := signing.NewEdSigner(signing.ToFile(file))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "public key: %s\naddress: %s\n",
				signer.PublicKey(), sdkwallet.Address(sdk.Public(signer.PrivateKey())))
			return nil
		},
	}
	create.Flags().StringVar(&file, "file", defaultKeyFile, "path to the new identity file")
	create.Flags().StringVar(&hrp, "network-hrp", types.NetworkHRP(), "human readable prefix of the addresses")
	key.AddCommand(create)
	return key
}

func walletCommand() *cobra.Command {
	wallet := &cobra.Command{Use: "wallet", Short: "manage wallet account"}
	var flags clientFlags
	flags.add(wallet.PersistentFlags())
	wallet.AddCommand(&cobra.Command{
		Use:   "spawn",
		Short: "spawn wallet for the identity",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return flags.submit(c, func(pk signing.PrivateKey, nonce uint64) []byte {
				return sdkwallet.SelfSpawn(pk, nonce, sdk.WithGenesisID(flags.genesisID))
			})
		},
	})
	wallet.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "show wallet account",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cl, err := flags.client()
			if err != nil {
				return err
			}
			signer, err := flags.signer()
			if err != nil {
				return err
			}
			ctx, cancel := flags.context(c)
			defer cancel()
			account, err := cl.Account(ctx, flags.principal(signer))
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), account)
		},
	})
	wallet.AddCommand(&cobra.Command{
		Use:   "history",
		Short: "list transactions signed by the wallet",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cl, err := flags.client()
			if err != nil {
				return err
			}
			signer, err := flags.signer()
			if err != nil {
				return err
			}
			ctx, cancel := flags.context(c)
			defer cancel()
			txs, err := cl.Transactions(ctx, flags.principal(signer))
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), txs)
		},
	})
	return wallet
}

func pollCommand() *cobra.Command {
	pollCmd := &cobra.Command{Use: "poll", Short: "create, vote and inspect polls"}
	var flags clientFlags
	flags.add(pollCmd.PersistentFlags())

	var (
		args   poll.SpawnArguments
		expiry time.Duration
	)
	create := &cobra.Command{
		Use:   "create <question>",
		Short: "create poll",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, params []string) error {
			args.Question = params[0]
			args.ExpiryTime = uint64(time.Now().Add(expiry).Unix())
			return flags.submit(c, func(pk signing.PrivateKey, nonce uint64) []byte {
				return sdkpoll.Create(pk, nonce, &args, sdk.WithGenesisID(flags.genesisID))
			})
		},
	}
	create.Flags().Uint64Var(&args.PollIndex, "index", 0, "poll index, unique for the creator")
	create.Flags().Uint64Var(&args.Threshold, "threshold", 0, "maximal number of votes, 0 is unlimited")
	create.Flags().DurationVar(&expiry, "expiry", 24*time.Hour, "duration after which poll stops accepting votes")

	var no bool
	vote := &cobra.Command{
		Use:   "vote <poll address>",
		Short: "vote yes (default) or no for the poll",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, params []string) error {
			types.SetNetworkHRP(flags.networkHRP)
			target, err := types.StringToAddress(params[0])
			if err != nil {
				return err
			}
			return flags.submit(c, func(pk signing.PrivateKey, nonce uint64) []byte {
				return sdkpoll.Vote(pk, nonce, target, !no, sdk.WithGenesisID(flags.genesisID))
			})
		},
	}
	vote.Flags().BoolVar(&no, "no", false, "vote no")

	show := &cobra.Command{
		Use:   "show <poll address>",
		Short: "show poll",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, params []string) error {
			cl, err := flags.client()
			if err != nil {
				return err
			}
			address, err := types.StringToAddress(params[0])
			if err != nil {
				return err
			}
			ctx, cancel := flags.context(c)
			defer cancel()
			rst, err := cl.Poll(ctx, address)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), rst)
		},
	}

	var creator string
	list := &cobra.Command{
		Use:   "list",
		Short: "list polls of the creator, identity owner by default",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, params []string) error {
			cl, err := flags.client()
			if err != nil {
				return err
			}
			var address types.Address
			if creator != "" {
				address, err = types.StringToAddress(creator)
				if err != nil {
					return err
				}
			} else {
				signer, err := flags.signer()
				if err != nil {
					return err
				}
				address = flags.principal(signer)
			}
			ctx, cancel := flags.context(c)
			defer cancel()
			rst, err := cl.Polls(ctx, address)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), rst)
		},
	}
	list.Flags().StringVar(&creator, "creator", "", "address of the creator")

	pollCmd.AddCommand(create, vote, show, list)
	return pollCmd
}
