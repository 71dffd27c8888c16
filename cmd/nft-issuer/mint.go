package main

import (
	"crypto/ed25519"
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-nft-issuer/pkg/netutil"
	"github.com/code-payments/code-nft-issuer/pkg/nft"
	"github.com/code-payments/code-nft-issuer/pkg/solana"
)

const (
	defaultLocalAirdrop = 1_000_000_000
)

type mintOptions struct {
	name   string
	symbol string
	uri    string

	keypair     string
	mintKeypair string

	local    bool
	airdrop  uint64
	checkURI bool
	verify   bool
}

func newMintCmd(env *environment) *cobra.Command {
	opts := &mintOptions{}

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Issue a unique NFT to the creator",
		Long: `Issue a unique NFT owned by the creator keypair. A fresh mint keypair is
generated unless one is supplied. With --local the issuance runs against an
in-process ledger, funded by an airdrop to the creator.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMint(cmd, env, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "metadata name")
	cmd.Flags().StringVar(&opts.symbol, "symbol", "", "metadata symbol")
	cmd.Flags().StringVar(&opts.uri, "uri", "", "metadata json uri")
	cmd.Flags().StringVar(&opts.keypair, "keypair", "", "creator keypair file (overrides CREATOR_KEYPAIR)")
	cmd.Flags().StringVar(&opts.mintKeypair, "mint-keypair", "", "mint keypair file (generated when omitted)")
	cmd.Flags().BoolVar(&opts.local, "local", false, "issue against an in-process ledger")
	cmd.Flags().Uint64Var(&opts.airdrop, "airdrop", 0, "lamports to airdrop to the creator first (defaults to 1 SOL with --local)")
	cmd.Flags().BoolVar(&opts.checkURI, "check-uri", false, "fetch the metadata uri before issuing")
	cmd.Flags().BoolVar(&opts.verify, "verify", true, "load and verify the issued accounts")

	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("uri")

	return cmd
}

func runMint(cmd *cobra.Command, env *environment, opts *mintOptions) error {
	ctx := commandContext(cmd)

	creator, err := opts.creatorKeypair(env)
	if err != nil {
		return err
	}

	var mint ed25519.PrivateKey
	if len(opts.mintKeypair) > 0 {
		mint, err = loadKeypair(opts.mintKeypair)
	} else {
		mint, err = generateKeypair()
	}
	if err != nil {
		return err
	}

	if opts.checkURI {
		if err := netutil.ValidateHttpUrl(opts.uri, false, true); err != nil {
			return errors.Wrap(err, "metadata uri is not reachable")
		}
	}

	inv, err := nft.NewInvocation(nft.Args{
		Name:   opts.name,
		Symbol: opts.symbol,
		URI:    opts.uri,
	}, creator, mint)
	if err != nil {
		return err
	}

	log := env.log.WithFields(inv.Accounts.Fields())

	sc := env.client(opts.local)

	airdrop := opts.airdrop
	if opts.local && airdrop == 0 {
		airdrop = defaultLocalAirdrop
	}
	if airdrop > 0 {
		if err := fund(sc, inv.Accounts.Creator, airdrop); err != nil {
			return err
		}
		log.WithField("lamports", airdrop).Info("funded creator")
	}

	issuer, err := env.issuer(sc)
	if err != nil {
		return err
	}

	result, err := issuer.CreateUniqueNFT(ctx, inv)
	if err != nil {
		var stepErr *nft.StepError
		if errors.As(err, &stepErr) {
			log.WithFields(logrus.Fields{
				"step":    stepErr.Step.String(),
				"reached": stepErr.Reached.String(),
			}).Warn("issuance failed")
		}
		return err
	}

	if opts.verify {
		issued, err := issuer.Inspect(ctx, inv.Accounts.Creator, inv.Accounts.Mint)
		if err != nil {
			return errors.Wrap(err, "error loading issued accounts")
		}
		if err := issued.Validate(); err != nil {
			return errors.Wrap(err, "issued accounts failed verification")
		}
	}

	printResult(cmd.OutOrStdout(), result)
	return nil
}

func (opts *mintOptions) creatorKeypair(env *environment) (ed25519.PrivateKey, error) {
	path := opts.keypair
	if len(path) == 0 {
		path = env.config.Keypair
	}

	if len(path) > 0 {
		return loadKeypair(path)
	}
	if opts.local {
		return generateKeypair()
	}
	return nil, errors.New("a creator keypair is required, set --keypair or CREATOR_KEYPAIR")
}

func fund(sc solana.Client, address ed25519.PublicKey, lamports uint64) error {
	sig, err := sc.RequestAirdrop(address, lamports, solana.CommitmentFinalized)
	if err != nil {
		return errors.Wrap(err, "error requesting airdrop")
	}

	status, err := solana.PollSignatureStatus(sc, sig, solana.CommitmentFinalized)
	if err != nil {
		return errors.Wrap(err, "error confirming airdrop")
	}
	if status.ErrorResult != nil {
		return errors.Wrap(status.ErrorResult, "airdrop failed")
	}
	return nil
}

func printResult(w io.Writer, result *nft.Result) {
	a := result.Accounts
	fmt.Fprintf(w, "signature:      %s\n", result.Signature)
	fmt.Fprintf(w, "slot:           %d\n", result.Slot)
	fmt.Fprintf(w, "state:          %s\n", result.State)
	printAccounts(w, &a)
}

func printAccounts(w io.Writer, a *nft.Accounts) {
	fmt.Fprintf(w, "creator:        %s\n", base58.Encode(a.Creator))
	fmt.Fprintf(w, "mint:           %s\n", base58.Encode(a.Mint))
	fmt.Fprintf(w, "token account:  %s\n", base58.Encode(a.CreatorTokenAccount))
	fmt.Fprintf(w, "metadata:       %s\n", base58.Encode(a.Metadata))
	fmt.Fprintf(w, "master edition: %s\n", base58.Encode(a.MasterEdition))
}
