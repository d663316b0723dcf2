package main

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const maxKeyPrefixLength = 5

var errInvalidPrefixLength = errors.Errorf("prefix length must be at most %d", maxKeyPrefixLength)

func newKeygenCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an authority keypair, optionally with a vanity address prefix",
		Args:  cobra.NoArgs,
		// Key generation needs neither config nor a ledger.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			pub, priv, err := grindKey(prefix)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "public_key:            %s\nauthority_private_key: %s\n", base58.Encode(pub), base58.Encode(priv))
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "base58 prefix the public key must start with")

	return cmd
}

// grindKey generates keys until the base58 public key starts with prefix.
func grindKey(prefix string) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	if len(prefix) > maxKeyPrefixLength {
		return nil, nil, errInvalidPrefixLength
	}
	if _, err := base58.Decode(prefix); len(prefix) > 0 && err != nil {
		return nil, nil, errors.Wrapf(err, "prefix %q is not base58", prefix)
	}

	for {
		pub, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, nil, err
		}

		if strings.HasPrefix(base58.Encode(pub), prefix) {
			return pub, priv, nil
		}
	}
}
