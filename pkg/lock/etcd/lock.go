// Package etcd implements lock.Manager on etcd v3 concurrency mutexes.
package etcd

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.etcd.io/etcd/api/v3/mvccpb"
	v3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/code-payments/code-vault-server/pkg/lock"
)

var (
	ErrManagerClosed = errors.New("lock manager is closed")
	ErrAlreadyHeld   = errors.New("lock is already held by this handle")
)

// LockManager hands out locks backed by a single etcd session. Every lock it
// creates is released if the session lease expires.
type LockManager struct {
	log     *logrus.Entry
	client  *v3.Client
	rootKey string
	ttl     int

	closeOnce sync.Once
	closeCh   chan struct{}

	sessionMu sync.Mutex
	session   *concurrency.Session
}

// NewLockManager starts a session with lockTTL as its lease TTL. Locks are
// stored under rootKey.
func NewLockManager(client *v3.Client, rootKey string, lockTTL time.Duration) (*LockManager, error) {
	// concurrency.WithTTL silently falls back to 60s outside (0, 60s].
	if lockTTL < time.Second || lockTTL > time.Minute {
		return nil, errors.Errorf("invalid lock ttl: %v (must be within [1s, 60s])", lockTTL)
	}

	ttl := int(lockTTL.Round(time.Second).Seconds())

	session, err := newSession(client, ttl)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create etcd session")
	}

	lm := &LockManager{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type": "lock/etcd/LockManager",
			"root": rootKey,
		}),
		client:  client,
		rootKey: rootKey,
		ttl:     ttl,
		closeCh: make(chan struct{}),
		session: session,
	}

	go lm.watchSession()

	return lm, nil
}

// Create implements lock.Manager.Create.
func (lm *LockManager) Create(_ context.Context, name string) (lock.DistributedLock, error) {
	if lm.currentSession() == nil {
		return nil, ErrManagerClosed
	}

	key := path.Join(lm.rootKey, name)
	return &Lock{
		log: lm.log.WithFields(logrus.Fields{
			"type": "lock/etcd/Lock",
			"key":  key,
		}),
		lm:  lm,
		key: key,
	}, nil
}

// Close ends the session. Every lock held through the manager is released.
func (lm *LockManager) Close() {
	lm.closeOnce.Do(func() {
		lm.sessionMu.Lock()
		defer lm.sessionMu.Unlock()

		close(lm.closeCh)

		if err := lm.session.Close(); err != nil {
			lm.log.WithError(err).Warn("failure closing etcd session")
		}
		lm.session = nil
	})
}

func (lm *LockManager) currentSession() *concurrency.Session {
	lm.sessionMu.Lock()
	defer lm.sessionMu.Unlock()

	return lm.session
}

// watchSession replaces the session whenever it ends, until the manager is
// closed. Locks held on an ended session observe the loss themselves.
func (lm *LockManager) watchSession() {
	for {
		session := lm.currentSession()
		if session == nil {
			return
		}

		select {
		case <-lm.closeCh:
			return
		case <-session.Done():
		}

		lm.log.Info("etcd session ended, recreating")

		for {
			replacement, err := newSession(lm.client, lm.ttl)
			if err == nil {
				lm.sessionMu.Lock()
				if lm.session == nil {
					lm.sessionMu.Unlock()
					_ = replacement.Close()
					return
				}
				lm.session = replacement
				lm.sessionMu.Unlock()
				break
			}

			lm.log.WithError(err).Warn("failure recreating etcd session, retrying in 1s")
			select {
			case <-lm.closeCh:
				return
			case <-time.After(time.Second):
			}
		}
	}
}

func newSession(client *v3.Client, ttl int) (*concurrency.Session, error) {
	return concurrency.NewSession(
		client,
		concurrency.WithTTL(ttl),
		concurrency.WithContext(v3.WithRequireLeader(context.Background())),
	)
}

// Lock is a single etcd mutex. A Lock handle must not be acquired
// concurrently with itself.
type Lock struct {
	log *logrus.Entry
	lm  *LockManager
	key string

	mu          sync.Mutex
	mutex       *concurrency.Mutex
	cancelWatch context.CancelFunc
}

// Acquire implements lock.DistributedLock.Acquire.
func (l *Lock) Acquire(ctx context.Context) (<-chan struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mutex != nil {
		return nil, ErrAlreadyHeld
	}

	session := l.lm.currentSession()
	if session == nil {
		return nil, ErrManagerClosed
	}

	mutex := concurrency.NewMutex(session, l.key)
	if err := mutex.Lock(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to lock etcd mutex")
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	watchCh := session.Client().Watch(
		v3.WithRequireLeader(watchCtx),
		mutex.Key(),
		v3.WithRev(mutex.Header().Revision+1),
	)

	lostCh := make(chan struct{})
	go l.watch(watchCtx, session, mutex, watchCh, lostCh)

	l.mutex = mutex
	l.cancelWatch = cancel

	l.log.Debug("lock acquired")
	return lostCh, nil
}

// watch closes lostCh once ownership of mutex can no longer be guaranteed.
func (l *Lock) watch(ctx context.Context, session *concurrency.Session, mutex *concurrency.Mutex, watchCh v3.WatchChan, lostCh chan struct{}) {
	defer close(lostCh)

	for {
		select {
		case <-ctx.Done():
			return

		case <-session.Done():
			l.log.Warn("etcd session ended, lock lost")
			l.forget(mutex)
			return

		case resp, ok := <-watchCh:
			if !ok || resp.Err() != nil {
				l.log.WithError(resp.Err()).Warn("failure watching lock key, assuming lock lost")
				l.forget(mutex)
				return
			}

			for _, event := range resp.Events {
				if event.Type == mvccpb.DELETE {
					l.log.Warn("lock key removed, lock lost")
					l.forget(mutex)
					return
				}
			}
		}
	}
}

// forget drops the local claim on mutex after it was lost and makes a best
// effort attempt to release it on the server.
func (l *Lock) forget(mutex *concurrency.Mutex) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mutex != mutex {
		return
	}

	l.cancelWatch()
	l.mutex = nil
	l.cancelWatch = nil

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = mutex.Unlock(ctx)
}

// Unlock implements lock.DistributedLock.Unlock.
func (l *Lock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mutex == nil {
		return nil
	}

	l.cancelWatch()
	err := l.mutex.Unlock(ctx)
	l.mutex = nil
	l.cancelWatch = nil

	if err != nil {
		return errors.Wrap(err, "failed to unlock etcd mutex")
	}
	return nil
}

// IsLocked implements lock.DistributedLock.IsLocked.
func (l *Lock) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.mutex != nil
}
