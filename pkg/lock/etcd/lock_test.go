//go:build integration

package etcd

import (
	"context"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	v3 "go.etcd.io/etcd/client/v3"

	"github.com/code-payments/code-vault-server/pkg/etcdtest"
	"github.com/code-payments/code-vault-server/pkg/lock"
)

func TestLock(t *testing.T) {
	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	client, teardown, err := etcdtest.StartEtcd(pool)
	require.NoError(t, err)
	defer teardown()

	for _, tc := range []struct {
		name string
		f    func(t *testing.T, client *v3.Client)
	}{
		{name: "Happy", f: testHappy},
		{name: "Contention", f: testContention},
		{name: "AcquireTimeout", f: testAcquireTimeout},
		{name: "Close", f: testClose},
		{name: "DoubleAcquire", f: testDoubleAcquire},
		{name: "DoubleUnlock", f: testDoubleUnlock},
		{name: "AcquireAll", f: testAcquireAll},
	} {
		t.Run(tc.name, func(t *testing.T) { tc.f(t, client) })
	}
}

func testHappy(t *testing.T, client *v3.Client) {
	lm, err := NewLockManager(client, "/locks", 10*time.Second)
	require.NoError(t, err)
	defer lm.Close()

	l, err := lm.Create(context.Background(), "account")
	require.NoError(t, err)
	require.False(t, l.IsLocked())

	lostCh, err := l.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, l.IsLocked())

	kvs, err := client.Get(context.Background(), "/locks/account", v3.WithPrefix())
	require.NoError(t, err)
	require.Len(t, kvs.Kvs, 1)

	require.NoError(t, l.Unlock(context.Background()))
	<-lostCh
	require.False(t, l.IsLocked())

	kvs, err = client.Get(context.Background(), "/locks/account", v3.WithPrefix())
	require.NoError(t, err)
	require.Empty(t, kvs.Kvs)
}

func testContention(t *testing.T, client *v3.Client) {
	first, err := NewLockManager(client, "/locks", 10*time.Second)
	require.NoError(t, err)
	defer first.Close()

	second, err := NewLockManager(client, "/locks", 10*time.Second)
	require.NoError(t, err)
	defer second.Close()

	held, err := first.Create(context.Background(), "account")
	require.NoError(t, err)
	_, err = held.Acquire(context.Background())
	require.NoError(t, err)

	waiting, err := second.Create(context.Background(), "account")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		_, err := waiting.Acquire(context.Background())
		require.NoError(t, err)
		close(acquired)
	}()

	select {
	case <-acquired:
		require.FailNow(t, "lock acquired while held by another manager")
	case <-time.After(time.Second):
	}

	require.NoError(t, held.Unlock(context.Background()))

	select {
	case <-acquired:
	case <-time.After(10 * time.Second):
		require.FailNow(t, "lock not handed over after unlock")
	}
	require.NoError(t, waiting.Unlock(context.Background()))
}

func testAcquireTimeout(t *testing.T, client *v3.Client) {
	first, err := NewLockManager(client, "/locks", 10*time.Second)
	require.NoError(t, err)
	defer first.Close()

	second, err := NewLockManager(client, "/locks", 10*time.Second)
	require.NoError(t, err)
	defer second.Close()

	held, err := first.Create(context.Background(), "account")
	require.NoError(t, err)
	lostCh, err := held.Acquire(context.Background())
	require.NoError(t, err)

	waiting, err := second.Create(context.Background(), "account")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err = waiting.Acquire(ctx)
	require.Error(t, err)
	require.False(t, waiting.IsLocked())

	// The acquisition context does not bound how long the lock is held
	select {
	case <-lostCh:
		require.FailNow(t, "lock lost unexpectedly")
	default:
	}
	require.NoError(t, held.Unlock(context.Background()))
}

func testClose(t *testing.T, client *v3.Client) {
	lm, err := NewLockManager(client, "/locks", 10*time.Second)
	require.NoError(t, err)
	defer lm.Close()

	l, err := lm.Create(context.Background(), "account")
	require.NoError(t, err)

	lostCh, err := l.Acquire(context.Background())
	require.NoError(t, err)

	lm.Close()
	<-lostCh

	_, err = l.Acquire(context.Background())
	require.True(t, errors.Is(err, ErrManagerClosed))

	l, err = lm.Create(context.Background(), "account")
	require.Nil(t, l)
	require.True(t, errors.Is(err, ErrManagerClosed))
}

func testDoubleAcquire(t *testing.T, client *v3.Client) {
	lm, err := NewLockManager(client, "/locks", 10*time.Second)
	require.NoError(t, err)
	defer lm.Close()

	l, err := lm.Create(context.Background(), "account")
	require.NoError(t, err)

	_, err = l.Acquire(context.Background())
	require.NoError(t, err)

	_, err = l.Acquire(context.Background())
	require.True(t, errors.Is(err, ErrAlreadyHeld))

	require.NoError(t, l.Unlock(context.Background()))
}

func testDoubleUnlock(t *testing.T, client *v3.Client) {
	lm, err := NewLockManager(client, "/locks", 10*time.Second)
	require.NoError(t, err)
	defer lm.Close()

	l, err := lm.Create(context.Background(), "account")
	require.NoError(t, err)

	lostCh, err := l.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, l.Unlock(context.Background()))
	require.NoError(t, l.Unlock(context.Background()))

	<-lostCh
}

func testAcquireAll(t *testing.T, client *v3.Client) {
	lm, err := NewLockManager(client, "/locks", 10*time.Second)
	require.NoError(t, err)
	defer lm.Close()

	held, err := lock.AcquireAll(context.Background(), lm, "b", "a", "c")
	require.NoError(t, err)
	require.False(t, held.IsLost())

	kvs, err := client.Get(context.Background(), "/locks/", v3.WithPrefix())
	require.NoError(t, err)
	require.Len(t, kvs.Kvs, 3)

	require.NoError(t, held.Release(context.Background()))

	kvs, err = client.Get(context.Background(), "/locks/", v3.WithPrefix())
	require.NoError(t, err)
	require.Empty(t, kvs.Kvs)
}

func TestNewLockManager_InvalidTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, 500 * time.Millisecond, 2 * time.Minute} {
		_, err := NewLockManager(nil, "/locks", ttl)
		require.Error(t, err)
	}
}
