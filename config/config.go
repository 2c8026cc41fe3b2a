package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	AES        AESConfig        `mapstructure:"aes"`
	Log        LogConfig        `mapstructure:"log"`
	Chains     ChainsConfig     `mapstructure:"chains"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Webhook    WebhookConfig    `mapstructure:"webhook"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type AESConfig struct {
	Key string `mapstructure:"key"` // 32-byte hex-encoded key for AES-256
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// EVMNetworkConfig configures one EVM JSON-RPC provider.
type EVMNetworkConfig struct {
	RPCURL      string `mapstructure:"rpc_url"`
	ChainID     int64  `mapstructure:"chain_id"`
	ExplorerURL string `mapstructure:"explorer_url"`
	FaucetURL   string `mapstructure:"faucet_url"` // testnet faucet endpoint, optional
}

// UTXONetworkConfig configures one esplora-style index API.
type UTXONetworkConfig struct {
	EsploraURL  string `mapstructure:"esplora_url"`
	ExplorerURL string `mapstructure:"explorer_url"`
}

// SolanaConfig configures the Solana RPC endpoint.
type SolanaConfig struct {
	RPCURL      string `mapstructure:"rpc_url"`
	ExplorerURL string `mapstructure:"explorer_url"`
}

// ChainsConfig holds per-family chain provider settings. Map keys are
// canonical network names (ethereum, polygon, ...).
type ChainsConfig struct {
	ReadTimeout time.Duration               `mapstructure:"read_timeout"` // balance/faucet reads
	SendTimeout time.Duration               `mapstructure:"send_timeout"` // transaction submission
	EVM         map[string]EVMNetworkConfig `mapstructure:"evm"`
	UTXO        map[string]UTXONetworkConfig `mapstructure:"utxo"`
	Solana      SolanaConfig                `mapstructure:"solana"`
}

type SettlementConfig struct {
	// ExpiryWindow is how long a payment request may stay pending
	// before the sweep fails it.
	ExpiryWindow time.Duration `mapstructure:"expiry_window"`
}

type WebhookConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: CPG_ (ChainPay Gateway).
// Nested keys use underscore: CPG_DATABASE_HOST, CPG_SETTLEMENT_EXPIRY_WINDOW, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "chainpay")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "chainpay-gateway")
	v.SetDefault("aes.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("chains.read_timeout", "10s")
	v.SetDefault("chains.send_timeout", "30s")
	v.SetDefault("chains.solana.rpc_url", "https://api.devnet.solana.com")
	v.SetDefault("chains.solana.explorer_url", "https://explorer.solana.com")
	v.SetDefault("settlement.expiry_window", "5m")
	v.SetDefault("webhook.timeout", "10s")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: CPG_DATABASE_HOST -> database.host
	v.SetEnvPrefix("CPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
