package runtime

import (
	"context"
	"sync"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-vault-server/pkg/code/data/ledger"
	"github.com/code-payments/code-vault-server/pkg/lock"
	"github.com/code-payments/code-vault-server/pkg/solana/vault"
)

type fakeLockManager struct {
	mu       sync.Mutex
	lose     bool
	failOn   string
	acquired []string
	released []string
}

func (m *fakeLockManager) Create(_ context.Context, name string) (lock.DistributedLock, error) {
	return &fakeLock{manager: m, name: name}, nil
}

func (m *fakeLockManager) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.acquired = nil
	m.released = nil
}

type fakeLock struct {
	manager *fakeLockManager
	name    string
	lostCh  chan struct{}
}

func (l *fakeLock) Acquire(_ context.Context) (<-chan struct{}, error) {
	l.manager.mu.Lock()
	defer l.manager.mu.Unlock()

	if l.name == l.manager.failOn {
		return nil, errors.New("acquire failed")
	}

	l.lostCh = make(chan struct{})
	if l.manager.lose {
		close(l.lostCh)
	}
	l.manager.acquired = append(l.manager.acquired, l.name)
	return l.lostCh, nil
}

func (l *fakeLock) Unlock(_ context.Context) error {
	l.manager.mu.Lock()
	defer l.manager.mu.Unlock()

	if l.lostCh == nil {
		return nil
	}
	if !l.manager.lose {
		close(l.lostCh)
	}
	l.lostCh = nil
	l.manager.released = append(l.manager.released, l.name)
	return nil
}

func (l *fakeLock) IsLocked() bool {
	l.manager.mu.Lock()
	defer l.manager.mu.Unlock()

	return l.lostCh != nil
}

func TestSubmit_DistributedLocks(t *testing.T) {
	manager := &fakeLockManager{}
	env := setup(t, WithDistributedLocks(manager))
	manager.reset()

	require.NoError(t, env.submit(t, initializeVaultInstruction(t, env.authorityKey(), testVaultId)))

	assert.ElementsMatch(t, []string{
		distributedLockPrefix + base58.Encode(env.authorityKey()),
		distributedLockPrefix + base58.Encode(vaultPoolAddress(t, testVaultId)),
		distributedLockPrefix + base58.Encode(vault.PROGRAM_ID),
	}, manager.acquired)
	assert.ElementsMatch(t, manager.acquired, manager.released)
}

func TestSubmit_DistributedLockLost(t *testing.T) {
	manager := &fakeLockManager{}
	env := setup(t, WithDistributedLocks(manager))
	manager.lose = true

	err := env.submit(t, initializeVaultInstruction(t, env.authorityKey(), testVaultId))
	assert.Equal(t, ErrLockLost, err)

	_, err = env.runtime.GetAccount(env.ctx, vaultPoolAddress(t, testVaultId))
	assert.True(t, errors.Is(err, ledger.ErrAccountNotFound))
}

func TestSubmit_DistributedLockUnavailable(t *testing.T) {
	manager := &fakeLockManager{}
	env := setup(t, WithDistributedLocks(manager))
	manager.reset()
	manager.failOn = distributedLockPrefix + base58.Encode(vaultPoolAddress(t, testVaultId))

	err := env.submit(t, initializeVaultInstruction(t, env.authorityKey(), testVaultId))
	require.Error(t, err)
	assert.ElementsMatch(t, manager.acquired, manager.released)

	// Local stripes were released alongside the distributed locks.
	manager.failOn = ""
	require.NoError(t, env.submit(t, initializeVaultInstruction(t, env.authorityKey(), testVaultId)))
}
