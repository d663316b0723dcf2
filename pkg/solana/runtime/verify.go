package runtime

import (
	"bytes"
	"crypto/ed25519"
	"math/bits"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault-server/pkg/solana"
)

// lamportSum is an overflow free sum of account balances.
type lamportSum struct {
	hi, lo uint64
}

func (s *lamportSum) add(v uint64) {
	var carry uint64
	s.lo, carry = bits.Add64(s.lo, v, 0)
	s.hi += carry
}

func verifyTransaction(tx *solana.Transaction) error {
	if err := tx.Verify(); err != nil {
		return err
	}
	if len(tx.Message.Instructions) == 0 {
		return ErrNoInstructions
	}
	if size := len(tx.Marshal()); size > solana.MaxTransactionSize {
		return errors.Wrapf(ErrTransactionTooLarge, "%d bytes", size)
	}
	return nil
}

// checkInvariants validates the staged set against the committed snapshots
// after every instruction has run.
func checkInvariants(program ed25519.PublicKey, set *stagedSet) error {
	var before, after lamportSum
	for _, account := range set.accounts {
		before.add(account.original.Lamports)
		after.add(account.staged.Lamports)

		if !account.isModified() {
			continue
		}

		if err := checkModification(program, account); err != nil {
			return errors.Wrapf(err, "account %s", base58.Encode(account.staged.Key))
		}
	}

	if before != after {
		return ErrUnbalancedTransaction
	}
	return nil
}

func checkModification(program ed25519.PublicKey, account *stagedAccount) error {
	original, staged := account.original, account.staged

	if !staged.IsWritable {
		return ErrReadonlyAccountModified
	}

	ownerChanged := !bytes.Equal(original.Owner, staged.Owner)
	dataChanged := !bytes.Equal(original.Data, staged.Data)
	if ownerChanged || dataChanged {
		switch {
		case original.IsOwnedBy(program) && !ownerChanged:
		case original.IsUnallocated() && staged.IsOwnedBy(program):
		default:
			return ErrExternalAccountModified
		}
	}

	if staged.Lamports < original.Lamports {
		ownedByProgram := original.IsOwnedBy(program)
		signingSystemAccount := original.IsOwnedBy(solana.SystemProgramID) && staged.IsSigner
		if !ownedByProgram && !signingSystemAccount {
			return ErrExternalAccountDebited
		}
	}

	return nil
}
