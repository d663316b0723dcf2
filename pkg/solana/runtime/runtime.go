// Package runtime executes signed vault transactions against a ledger store.
//
// Every account referenced by a transaction is locked, staged, processed and
// checked before anything is persisted. A transaction either commits every
// account it modified or none of them.
package runtime

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-vault-server/pkg/code/data/ledger"
	"github.com/code-payments/code-vault-server/pkg/lock"
	"github.com/code-payments/code-vault-server/pkg/metrics"
	"github.com/code-payments/code-vault-server/pkg/retry"
	"github.com/code-payments/code-vault-server/pkg/retry/backoff"
	"github.com/code-payments/code-vault-server/pkg/solana"
	"github.com/code-payments/code-vault-server/pkg/sync"
)

const (
	metricsStructName = "solana.runtime"

	localLockStripes      = 1024
	distributedLockPrefix = "account/"

	commitBaseBackoff = 10 * time.Millisecond
	commitMaxBackoff  = 250 * time.Millisecond
	commitJitter      = 0.25
)

// Program processes instructions addressed to its program id.
type Program interface {
	ProgramID() ed25519.PublicKey
	Process(ctx context.Context, accounts []*solana.AccountInfo, data []byte) error
}

// Runtime is a single program executor over a ledger.Store.
type Runtime struct {
	log              *logrus.Entry
	conf             *conf
	store            ledger.Store
	program          Program
	localLocks       *sync.StripedLock
	distributedLocks lock.Manager
}

type Option func(*Runtime)

// WithDistributedLocks additionally locks accounts through manager, so
// multiple processes can share a store.
func WithDistributedLocks(manager lock.Manager) Option {
	return func(r *Runtime) {
		r.distributedLocks = manager
	}
}

func New(store ledger.Store, program Program, configProvider ConfigProvider, opts ...Option) *Runtime {
	r := &Runtime{
		log:        logrus.StandardLogger().WithField("type", "solana/runtime"),
		conf:       configProvider(),
		store:      store,
		program:    program,
		localLocks: sync.NewStripedLock(localLockStripes),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Submit verifies, executes and commits tx.
func (r *Runtime) Submit(ctx context.Context, tx *solana.Transaction) error {
	ctx, end := metrics.StartTransaction(ctx, "runtime__submit")
	defer end()

	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Submit")
	defer tracer.End()

	var signature string
	if len(tx.Signatures) > 0 {
		signature = base58.Encode(tx.Signature())
	}

	log := r.log.WithFields(logrus.Fields{
		"method":       "Submit",
		"signature":    signature,
		"instructions": len(tx.Message.Instructions),
	})

	attempts, err := r.submit(ctx, tx)
	recordTransactionEvent(ctx, signature, len(tx.Message.Instructions), attempts, err)
	tracer.OnError(err)

	if err != nil {
		log.WithError(err).Info("transaction rejected")
		return err
	}

	log.WithField("attempts", attempts).Debug("transaction committed")
	return nil
}

func (r *Runtime) submit(ctx context.Context, tx *solana.Transaction) (uint, error) {
	if err := verifyTransaction(tx); err != nil {
		return 0, err
	}

	locks, err := r.lockAccounts(ctx, tx.Message.Accounts...)
	if err != nil {
		return 0, err
	}
	defer locks.release()

	return retry.Retry(
		func() error {
			return r.execute(ctx, tx, locks)
		},
		r.commitStrategies(ctx)...,
	)
}

func (r *Runtime) execute(ctx context.Context, tx *solana.Transaction, locks *accountLocks) error {
	set, err := r.stageMessage(ctx, &tx.Message)
	if err != nil {
		return err
	}

	for i, compiled := range tx.Message.Instructions {
		program, metas, err := tx.Message.ResolveInstruction(compiled)
		if err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
		if !bytes.Equal(program, r.program.ProgramID()) {
			return errors.Wrapf(ErrUnsupportedProgram, "instruction %d targets %s", i, base58.Encode(program))
		}

		accounts := make([]*solana.AccountInfo, len(metas))
		for j, meta := range metas {
			account, ok := set.get(meta.PublicKey)
			if !ok {
				return errors.Wrapf(solana.ErrAccountIndexOutOfRange, "instruction %d account %d", i, j)
			}
			accounts[j] = account
		}

		if err := r.program.Process(ctx, accounts, compiled.Data); err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
	}

	if err := checkInvariants(r.program.ProgramID(), set); err != nil {
		return err
	}

	modified := set.modifiedRecords()
	if len(modified) == 0 {
		return nil
	}

	if locks.isLost() {
		return ErrLockLost
	}

	return r.store.SaveAll(ctx, modified...)
}

// Fund credits lamports to a system account. Funding is outside the
// conservation check and exists for local use and tests.
func (r *Runtime) Fund(ctx context.Context, address ed25519.PublicKey, lamports uint64) error {
	log := r.log.WithFields(logrus.Fields{
		"method":   "Fund",
		"address":  base58.Encode(address),
		"lamports": lamports,
	})

	locks, err := r.lockAccounts(ctx, address)
	if err != nil {
		return err
	}
	defer locks.release()

	_, err = retry.Retry(
		func() error {
			account, err := r.loadAccount(ctx, address)
			if err != nil {
				return err
			}

			if !account.staged.IsOwnedBy(solana.SystemProgramID) {
				return ErrNotSystemAccount
			}
			if lamports > math.MaxInt64-account.staged.Lamports {
				return ErrBalanceOverflow
			}
			if lamports == 0 {
				return nil
			}
			account.staged.Lamports += lamports

			if locks.isLost() {
				return ErrLockLost
			}
			return r.store.SaveAll(ctx, account.toRecord())
		},
		r.commitStrategies(ctx)...,
	)
	if err != nil {
		log.WithError(err).Info("failed to fund account")
		return err
	}

	log.Debug("account funded")
	return nil
}

// GetAccount returns the committed state of address, or
// ledger.ErrAccountNotFound when it has never been written.
func (r *Runtime) GetAccount(ctx context.Context, address ed25519.PublicKey) (*solana.AccountInfo, error) {
	record, err := r.store.Get(ctx, base58.Encode(address))
	if err != nil {
		return nil, err
	}
	return recordToAccountInfo(record)
}

func (r *Runtime) commitStrategies(ctx context.Context) []retry.Strategy {
	return []retry.Strategy{
		retry.Limit(uint(r.conf.maxCommitAttempts.Get(ctx))),
		retry.Context(ctx),
		retry.RetriableErrors(ledger.ErrStaleVersion),
		retry.BackoffWithJitter(backoff.BinaryExponential(commitBaseBackoff), commitMaxBackoff, commitJitter),
	}
}

type accountLocks struct {
	log         *logrus.Entry
	unlockLocal func()
	distributed *lock.HeldLocks
}

// lockAccounts takes the in-process stripes first and the distributed locks
// second, so goroutines of one process never contend on the shared manager.
func (r *Runtime) lockAccounts(ctx context.Context, keys ...ed25519.PublicKey) (*accountLocks, error) {
	rawKeys := make([][]byte, len(keys))
	names := make([]string, len(keys))
	for i, key := range keys {
		rawKeys[i] = key
		names[i] = distributedLockPrefix + base58.Encode(key)
	}

	locks := &accountLocks{
		log:         r.log,
		unlockLocal: r.localLocks.LockAll(rawKeys...),
	}

	if r.distributedLocks == nil {
		return locks, nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, r.conf.lockTimeout.Get(ctx))
	defer cancel()

	held, err := lock.AcquireAll(lockCtx, r.distributedLocks, names...)
	if err != nil {
		locks.unlockLocal()
		return nil, errors.Wrap(err, "failed to acquire account locks")
	}
	locks.distributed = held

	return locks, nil
}

func (l *accountLocks) isLost() bool {
	return l.distributed != nil && l.distributed.IsLost()
}

func (l *accountLocks) release() {
	if l.distributed != nil {
		if err := l.distributed.Release(context.Background()); err != nil {
			l.log.WithError(err).Warn("failed to release account locks")
		}
	}
	l.unlockLocal()
}
