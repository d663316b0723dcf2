package main

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	ledgerStoreMemory   = "memory"
	ledgerStorePostgres = "postgres"
)

// config is the process configuration, loaded from the config file and the
// environment.
type config struct {
	LogLevel string `mapstructure:"log_level"`
	AppName  string `mapstructure:"app_name"`

	// AuthorityPrivateKey is the base58 encoded 64 byte ed25519 key that
	// signs every submitted transaction.
	AuthorityPrivateKey string `mapstructure:"authority_private_key"`

	LedgerStore string `mapstructure:"ledger_store"`

	PostgresHost               string `mapstructure:"postgres_host"`
	PostgresPort               int    `mapstructure:"postgres_port"`
	PostgresUser               string `mapstructure:"postgres_user"`
	PostgresPassword           string `mapstructure:"postgres_password"`
	PostgresDbName             string `mapstructure:"postgres_db_name"`
	PostgresSslMode            string `mapstructure:"postgres_ssl_mode"`
	PostgresMaxOpenConnections int    `mapstructure:"postgres_max_open_connections"`
	PostgresMaxIdleConnections int    `mapstructure:"postgres_max_idle_connections"`

	// Distributed account locks are only used when endpoints are set.
	EtcdEndpoints   []string      `mapstructure:"etcd_endpoints"`
	EtcdLockRoot    string        `mapstructure:"etcd_lock_root"`
	EtcdLockTTL     time.Duration `mapstructure:"etcd_lock_ttl"`
	EtcdDialTimeout time.Duration `mapstructure:"etcd_dial_timeout"`

	MonitoredVaultIds []string      `mapstructure:"monitored_vault_ids"`
	MonitorInterval   time.Duration `mapstructure:"monitor_interval"`

	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`
}

var defaultConfig = config{
	LogLevel: "info",
	AppName:  "vault",

	LedgerStore: ledgerStoreMemory,

	PostgresHost:               "localhost",
	PostgresPort:               5432,
	PostgresDbName:             "vault",
	PostgresMaxOpenConnections: 10,
	PostgresMaxIdleConnections: 2,

	EtcdLockRoot:    "/vault/locks/",
	EtcdLockTTL:     10 * time.Second,
	EtcdDialTimeout: 5 * time.Second,

	MonitorInterval: time.Minute,
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("app_name", "APP_NAME")

	_ = viper.BindEnv("authority_private_key", "AUTHORITY_PRIVATE_KEY")

	_ = viper.BindEnv("ledger_store", "LEDGER_STORE")

	_ = viper.BindEnv("postgres_host", "POSTGRES_HOST")
	_ = viper.BindEnv("postgres_port", "POSTGRES_PORT")
	_ = viper.BindEnv("postgres_user", "POSTGRES_USER")
	_ = viper.BindEnv("postgres_password", "POSTGRES_PASSWORD")
	_ = viper.BindEnv("postgres_db_name", "POSTGRES_DB_NAME")
	_ = viper.BindEnv("postgres_ssl_mode", "POSTGRES_SSL_MODE")
	_ = viper.BindEnv("postgres_max_open_connections", "POSTGRES_MAX_OPEN_CONNECTIONS")
	_ = viper.BindEnv("postgres_max_idle_connections", "POSTGRES_MAX_IDLE_CONNECTIONS")

	_ = viper.BindEnv("etcd_endpoints", "ETCD_ENDPOINTS")
	_ = viper.BindEnv("etcd_lock_root", "ETCD_LOCK_ROOT")
	_ = viper.BindEnv("etcd_lock_ttl", "ETCD_LOCK_TTL")
	_ = viper.BindEnv("etcd_dial_timeout", "ETCD_DIAL_TIMEOUT")

	_ = viper.BindEnv("monitored_vault_ids", "MONITORED_VAULT_IDS")
	_ = viper.BindEnv("monitor_interval", "MONITOR_INTERVAL")

	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}

// loadConfig reads configPath when it exists and overlays the environment.
func loadConfig(configPath string) (config, error) {
	// viper.ReadInConfig only returns ConfigFileNotFoundError when searching
	// for a default file, so a missing explicit path is checked here.
	if _, err := os.Stat(configPath); err == nil {
		viper.SetConfigFile(configPath)
	} else if !os.IsNotExist(err) {
		return config{}, errors.Wrap(err, "failed to check if config exists")
	}

	err := viper.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		return config{}, errors.Wrap(err, "failed to load config")
	}

	conf := defaultConfig
	if err := viper.Unmarshal(&conf); err != nil {
		return config{}, errors.Wrap(err, "failed to unmarshal config")
	}

	conf.LedgerStore = strings.ToLower(conf.LedgerStore)
	switch conf.LedgerStore {
	case ledgerStoreMemory, ledgerStorePostgres:
	default:
		return config{}, errors.Errorf("unknown ledger store %q", conf.LedgerStore)
	}

	return conf, nil
}
