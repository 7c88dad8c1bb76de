package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	DB       DBConfig       `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// ChainConfig BSC 链接入参数
type ChainConfig struct {
	Name          string `mapstructure:"name"`      // bsc
	RpcUrl        string `mapstructure:"rpc_url"`
	ChainID       int64  `mapstructure:"chain_id"`
	TokenContract string `mapstructure:"token_contract"` // USDT (BEP-20) 合约地址
	Asset         string `mapstructure:"asset"`          // USDT
	Currency      string `mapstructure:"currency"`       // USDT.BSC

	Confirmations uint64 `mapstructure:"confirmations"` // 入账所需确认数
	ScanChunk     uint64 `mapstructure:"scan_chunk"`    // 每次扫描的最大区块数
	ScanBackfill  uint64 `mapstructure:"scan_backfill"` // 首次扫描回溯的区块数
	ReorgWindow   uint64 `mapstructure:"reorg_window"`  // 重组检查窗口 (区块)

	HotWalletAddress string `mapstructure:"hot_wallet_address"`
	HotWalletKey     string `mapstructure:"hot_wallet_key"` // 仅开发环境，生产应接入托管签名
	TransferGasLimit uint64 `mapstructure:"transfer_gas_limit"`
}

type LedgerConfig struct {
	TreasuryUserID string `mapstructure:"treasury_user_id"`
}

type AuthConfig struct {
	JwtSecret string `mapstructure:"jwt_secret"`
	TokenTTL  int    `mapstructure:"token_ttl_hours"`
}

var Global Config

func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// 环境变量设置
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.user", "custody_user")
	viper.SetDefault("db.password", "custody_password")
	viper.SetDefault("db.name", "custody_db")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.topic", "custody_events")

	viper.SetDefault("chain.name", "bsc")
	viper.SetDefault("chain.rpc_url", "https://bsc-dataseed.binance.org")
	viper.SetDefault("chain.chain_id", 56)
	viper.SetDefault("chain.asset", "USDT")
	viper.SetDefault("chain.currency", "USDT.BSC")
	viper.SetDefault("chain.confirmations", 15)
	viper.SetDefault("chain.scan_chunk", 1200)
	viper.SetDefault("chain.scan_backfill", 5000)
	viper.SetDefault("chain.reorg_window", 400)
	viper.SetDefault("chain.transfer_gas_limit", 120000)

	viper.SetDefault("ledger.treasury_user_id", "00000000-0000-0000-0000-000000000000")

	viper.SetDefault("auth.jwt_secret", "dev-only-secret")
	viper.SetDefault("auth.token_ttl_hours", 24)
}
