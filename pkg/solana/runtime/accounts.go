package runtime

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-vault-server/pkg/code/data/ledger"
	"github.com/code-payments/code-vault-server/pkg/solana"
)

// stagedAccount pairs the committed snapshot of an account with the copy a
// program mutates. Only the staged copy is ever handed to a program.
type stagedAccount struct {
	original *solana.AccountInfo
	staged   *solana.AccountInfo
	version  uint64
}

func (a *stagedAccount) isModified() bool {
	return a.original.Lamports != a.staged.Lamports ||
		!bytes.Equal(a.original.Owner, a.staged.Owner) ||
		!bytes.Equal(a.original.Data, a.staged.Data)
}

func (a *stagedAccount) toRecord() *ledger.Record {
	var data []byte
	if len(a.staged.Data) > 0 {
		data = make([]byte, len(a.staged.Data))
		copy(data, a.staged.Data)
	}

	return &ledger.Record{
		Address:  base58.Encode(a.staged.Key),
		Owner:    base58.Encode(a.staged.Owner),
		Lamports: a.staged.Lamports,
		Data:     data,
		Version:  a.version,
	}
}

// stagedSet is the ordered set of accounts referenced by a message.
type stagedSet struct {
	accounts []*stagedAccount
	byKey    map[string]*stagedAccount
}

func (s *stagedSet) get(key ed25519.PublicKey) (*solana.AccountInfo, bool) {
	account, ok := s.byKey[string(key)]
	if !ok {
		return nil, false
	}
	return account.staged, true
}

func (s *stagedSet) modifiedRecords() []*ledger.Record {
	var records []*ledger.Record
	for _, account := range s.accounts {
		if account.isModified() {
			records = append(records, account.toRecord())
		}
	}
	return records
}

func (r *Runtime) stageMessage(ctx context.Context, m *solana.Message) (*stagedSet, error) {
	set := &stagedSet{
		byKey: make(map[string]*stagedAccount, len(m.Accounts)),
	}

	for i, key := range m.Accounts {
		if _, ok := set.byKey[string(key)]; ok {
			continue
		}

		account, err := r.loadAccount(ctx, key)
		if err != nil {
			return nil, err
		}
		account.staged.IsSigner = m.IsSigner(i)
		account.staged.IsWritable = m.IsWritable(i)

		set.accounts = append(set.accounts, account)
		set.byKey[string(key)] = account
	}

	return set, nil
}

// loadAccount reads the committed snapshot of key. Accounts the ledger has
// never seen are empty system accounts at version zero.
func (r *Runtime) loadAccount(ctx context.Context, key ed25519.PublicKey) (*stagedAccount, error) {
	record, err := r.store.Get(ctx, base58.Encode(key))
	if errors.Is(err, ledger.ErrAccountNotFound) {
		original := solana.NewEmptyAccountInfo(key)
		return &stagedAccount{
			original: original,
			staged:   original.Clone(),
		}, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to load account %s", base58.Encode(key))
	}

	original, err := recordToAccountInfo(record)
	if err != nil {
		return nil, err
	}

	return &stagedAccount{
		original: original,
		staged:   original.Clone(),
		version:  record.Version,
	}, nil
}

func recordToAccountInfo(record *ledger.Record) (*solana.AccountInfo, error) {
	key, err := decodeKey(record.Address)
	if err != nil {
		return nil, errors.Wrapf(ledger.ErrInvalidRecord, "address %s: %v", record.Address, err)
	}

	owner, err := decodeKey(record.Owner)
	if err != nil {
		return nil, errors.Wrapf(ledger.ErrInvalidRecord, "owner of %s: %v", record.Address, err)
	}

	var data []byte
	if len(record.Data) > 0 {
		data = make([]byte, len(record.Data))
		copy(data, record.Data)
	}

	return &solana.AccountInfo{
		Key:      key,
		Owner:    owner,
		Lamports: record.Lamports,
		Data:     data,
	}, nil
}

func decodeKey(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, err
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid key length %d", len(decoded))
	}
	return decoded, nil
}
