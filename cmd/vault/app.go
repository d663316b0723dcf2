package main

import (
	"context"
	"crypto/ed25519"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	v3 "go.etcd.io/etcd/client/v3"

	"github.com/code-payments/code-vault-server/pkg/code/data/ledger"
	ledger_memory "github.com/code-payments/code-vault-server/pkg/code/data/ledger/memory"
	ledger_postgres "github.com/code-payments/code-vault-server/pkg/code/data/ledger/postgres"
	pg "github.com/code-payments/code-vault-server/pkg/database/postgres"
	etcd_lock "github.com/code-payments/code-vault-server/pkg/lock/etcd"
	"github.com/code-payments/code-vault-server/pkg/metrics"
	"github.com/code-payments/code-vault-server/pkg/solana"
	"github.com/code-payments/code-vault-server/pkg/solana/runtime"
	"github.com/code-payments/code-vault-server/pkg/solana/vault/processor"
)

const (
	metricsShutdownTimeout = 10 * time.Second

	deriveCacheEntries = 10_000
)

// app holds the resources shared by every command.
type app struct {
	log       *logrus.Entry
	config    config
	ctx       context.Context
	store     ledger.Store
	runtime   *runtime.Runtime
	authority ed25519.PrivateKey

	closers []func()
}

func newApp(ctx context.Context, conf config) (*app, error) {
	a := &app{
		log:    logrus.StandardLogger().WithField("type", "cmd/vault"),
		config: conf,
	}

	nr, err := newMetricsProvider(conf)
	if err != nil {
		return nil, err
	}
	if nr != nil {
		a.closers = append(a.closers, func() { nr.Shutdown(metricsShutdownTimeout) })
	}
	configureLogger(conf, nr)
	a.ctx = metrics.NewContext(ctx, nr)

	if len(conf.AuthorityPrivateKey) > 0 {
		a.authority, err = decodePrivateKey(conf.AuthorityPrivateKey)
		if err != nil {
			return nil, err
		}
	}

	if err := a.openStore(); err != nil {
		a.Close()
		return nil, err
	}

	var opts []runtime.Option
	if len(conf.EtcdEndpoints) > 0 {
		manager, err := a.openLockManager()
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, runtime.WithDistributedLocks(manager))
	}

	a.runtime = runtime.New(
		a.store,
		processor.New(solana.NewCachingDeriveFunc(solana.FindProgramAddressAndBump, deriveCacheEntries), processor.WithEnvConfigs()),
		runtime.WithEnvConfigs(),
		opts...,
	)

	return a, nil
}

// Close releases resources in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) authorityKey() (ed25519.PublicKey, error) {
	if a.authority == nil {
		return nil, errors.New("authority_private_key is not configured")
	}
	return a.authority.Public().(ed25519.PublicKey), nil
}

// submit signs instructions with the authority as fee payer and submits
// them as a single transaction.
func (a *app) submit(instructions ...solana.Instruction) error {
	authority, err := a.authorityKey()
	if err != nil {
		return err
	}

	tx := solana.NewTransaction(authority, instructions...)
	if err := tx.Sign(a.authority); err != nil {
		return errors.Wrap(err, "failed to sign transaction")
	}

	return a.runtime.Submit(a.ctx, &tx)
}

func (a *app) openStore() error {
	switch a.config.LedgerStore {
	case ledgerStorePostgres:
		db, err := pg.Open(a.ctx, &pg.Config{
			User:               a.config.PostgresUser,
			Password:           a.config.PostgresPassword,
			Host:               a.config.PostgresHost,
			Port:               a.config.PostgresPort,
			DbName:             a.config.PostgresDbName,
			SslMode:            a.config.PostgresSslMode,
			MaxOpenConnections: a.config.PostgresMaxOpenConnections,
			MaxIdleConnections: a.config.PostgresMaxIdleConnections,
		})
		if err != nil {
			return errors.Wrap(err, "failed to connect to postgres")
		}
		a.closers = append(a.closers, closeWithLog(a.log, "postgres", db))
		a.store = ledger_postgres.New(db)
	default:
		a.log.Debug("using an in-memory ledger, state is lost when the process exits")
		a.store = ledger_memory.New()
	}
	return nil
}

func (a *app) openLockManager() (*etcd_lock.LockManager, error) {
	client, err := v3.New(v3.Config{
		Endpoints:   a.config.EtcdEndpoints,
		DialTimeout: a.config.EtcdDialTimeout,
		Context:     a.ctx,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to etcd")
	}
	a.closers = append(a.closers, closeWithLog(a.log, "etcd", client))

	manager, err := etcd_lock.NewLockManager(client, a.config.EtcdLockRoot, a.config.EtcdLockTTL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create etcd lock manager")
	}
	a.closers = append(a.closers, manager.Close)

	return manager, nil
}

func newMetricsProvider(conf config) (*newrelic.Application, error) {
	if len(conf.NewRelicLicenseKey) == 0 {
		return nil, nil
	}

	nr, err := newrelic.NewApplication(
		newrelic.ConfigFromEnvironment(),
		newrelic.ConfigAppName(conf.AppName),
		newrelic.ConfigLicense(conf.NewRelicLicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to new relic")
	}
	return nr, nil
}

func configureLogger(conf config, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewNewRelicLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(conf.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", conf.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}

func decodePrivateKey(value string) (ed25519.PrivateKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrap(err, "invalid authority_private_key encoding")
	}
	if len(decoded) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("authority_private_key must be %d bytes, got %d", ed25519.PrivateKeySize, len(decoded))
	}
	return ed25519.PrivateKey(decoded), nil
}

func closeWithLog(log *logrus.Entry, name string, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.WithError(err).Warnf("failed to close %s", name)
		}
	}
}
