package processor

import (
	"crypto/ed25519"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/code-vault-server/pkg/solana"
	"github.com/code-payments/code-vault-server/pkg/solana/vault"
)

// lamportTransfer is a pending movement of lamports between two accounts.
type lamportTransfer struct {
	from     *solana.AccountInfo
	to       *solana.AccountInfo
	lamports uint64
}

// checkTransfers validates a batch of transfers against the running balances
// they produce, without mutating any account.
func checkTransfers(transfers ...lamportTransfer) error {
	balances := make(map[*solana.AccountInfo]uint64)
	balanceOf := func(account *solana.AccountInfo) uint64 {
		if v, ok := balances[account]; ok {
			return v
		}
		return account.Lamports
	}

	for _, transfer := range transfers {
		fromBalance := balanceOf(transfer.from)
		if fromBalance < transfer.lamports {
			return errors.Wrapf(vault.ErrInsufficientFunds, "%s holds %d lamports, needs %d", transfer.from, fromBalance, transfer.lamports)
		}
		balances[transfer.from] = fromBalance - transfer.lamports

		toBalance := balanceOf(transfer.to)
		if toBalance > math.MaxUint64-transfer.lamports {
			return errors.Wrapf(vault.ErrArithmeticOverflow, "crediting %s", transfer.to)
		}
		balances[transfer.to] = toBalance + transfer.lamports
	}

	return nil
}

// applyTransfers moves lamports for transfers previously accepted by
// checkTransfers.
func applyTransfers(transfers ...lamportTransfer) {
	for _, transfer := range transfers {
		transfer.from.Lamports -= transfer.lamports
		transfer.to.Lamports += transfer.lamports
	}
}

// allocateAndAssign gives an unallocated system account zeroed data of size
// bytes owned by owner.
func allocateAndAssign(account *solana.AccountInfo, size int, owner ed25519.PublicKey) {
	account.Data = make([]byte, size)
	account.Owner = make(ed25519.PublicKey, len(owner))
	copy(account.Owner, owner)
}
