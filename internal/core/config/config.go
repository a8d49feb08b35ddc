package config

import (
	"fmt"

	"smartwallet/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the root configuration for the smart wallet tracker.
type Config struct {
	Log           LogConfig           `mapstructure:"log"`
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Monitor       MonitorConfig       `mapstructure:"monitor"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Provider      ProviderConfig      `mapstructure:"provider"`
	Oracle        OracleConfig        `mapstructure:"oracle"`
	Chains        ChainsConfig        `mapstructure:"chains"`
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Tracking      TrackingConfig      `mapstructure:"tracking"`
	Migration     MigrationConfig     `mapstructure:"migration"`
	Consensus     ConsensusConfig     `mapstructure:"consensus"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	DBMetrics int    `mapstructure:"db_metrics"`
}

type KafkaConfig struct {
	Brokers         string `mapstructure:"brokers"`
	TopicConsensus  string `mapstructure:"topic_consensus"`
	ProducerTimeout int    `mapstructure:"producer_timeout_ms"`
}

type ElasticsearchConfig struct {
	Addresses            []string `mapstructure:"addresses"`
	Username             string   `mapstructure:"username"`
	Password             string   `mapstructure:"password"`
	SmartWalletIndex     string   `mapstructure:"smart_wallet_index"`
	QualifiedWalletIndex string   `mapstructure:"qualified_wallet_index"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

// WorkerConfig controls the bounded worker pool shared by every
// fan-out stage (ingest, FIFO replay, tier/threshold sweeps, tracker,
// migration, consensus enrichment). Default matches spec §5.
type WorkerConfig struct {
	WorkerNum int `mapstructure:"worker_num"`
}

// ProviderConfig configures the external Data Provider (balances,
// transfers, EOA checks) and its API key pool.
type ProviderConfig struct {
	BaseURL    string   `mapstructure:"base_url"`
	APIKeys    []string `mapstructure:"api_keys"`
	RateLimit  int      `mapstructure:"rate_limit"`
	Timeout    int      `mapstructure:"timeout_seconds"`
	MaxRetries int      `mapstructure:"max_retries"`
	PageSize   int      `mapstructure:"page_size"`
}

// OracleConfig configures the chained primary/secondary price oracle.
type OracleConfig struct {
	PrimaryBaseURL   string   `mapstructure:"primary_base_url"`
	SecondaryBaseURL string   `mapstructure:"secondary_base_url"`
	CacheTTLSeconds  int      `mapstructure:"cache_ttl_seconds"`
	Stablecoins      []string `mapstructure:"stablecoins"`
}

type ChainsConfig struct {
	EVMRPCURLs    map[string]string `mapstructure:"evm_rpc_urls"`
	SolanaRPCURL  string            `mapstructure:"solana_rpc_url"`
}

// ScoringConfig holds the tunables for the Scorer/Tier Analyzer/Threshold
// Selector, resolving spec §9 Open Question (b).
type ScoringConfig struct {
	QualifyScoreFloor  float64 `mapstructure:"qualify_score_floor"`
	SigmoidSlope       float64 `mapstructure:"sigmoid_slope"`
	MinTradesQualified int     `mapstructure:"min_trades_qualified"`
}

// TrackingConfig controls the Live Tracker cadence (spec §4.7, default
// every 2 hours) and filters applied to the `tracking-live` CLI command.
type TrackingConfig struct {
	IntervalHours     int     `mapstructure:"interval_hours"`
	MinUSD            float64 `mapstructure:"min_usd"`
	HoursLookback     int     `mapstructure:"hours_lookback"`
	RelativeDeltaPct  float64 `mapstructure:"relative_delta_pct"`
}

// MigrationConfig controls the Migration Handler window and threshold
// (spec §4.8), grounded on the original's 168h/70% constants.
type MigrationConfig struct {
	WindowHours      int     `mapstructure:"window_hours"`
	ValueThresholdPct float64 `mapstructure:"value_threshold_pct"`
}

// ConsensusConfig controls the Consensus Detector window, minimum whale
// count, and the market-cap/stablecoin enrichment gate (spec §4.9:
// "discard if market cap ∉ [$100k, $100M] or token ∈ stablecoin set").
type ConsensusConfig struct {
	PeriodDays          int      `mapstructure:"period_days"`
	MinWhalesConsensus  int      `mapstructure:"min_whales_consensus"`
	UpdateIntervalHours int      `mapstructure:"update_interval_hours"`
	McapMinUSD          float64  `mapstructure:"mcap_min_usd"`
	McapMaxUSD          float64  `mapstructure:"mcap_max_usd"`
	Stablecoins         []string `mapstructure:"stablecoins"`
}

func InitConfig() Config {
	var config Config

	viper.SetConfigName("config.smartwallet")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config/")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	if err := mapstructure.Decode(viper.AllSettings(), &config); err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	applyDefaults(&config)

	return config
}

func applyDefaults(c *Config) {
	if c.Worker.WorkerNum <= 0 {
		c.Worker.WorkerNum = 8
	}
	if c.Provider.PageSize <= 0 {
		c.Provider.PageSize = 100
	}
	if c.Oracle.CacheTTLSeconds <= 0 {
		c.Oracle.CacheTTLSeconds = 30
	}
	if c.Scoring.QualifyScoreFloor == 0 {
		c.Scoring.QualifyScoreFloor = 20
	}
	if c.Scoring.SigmoidSlope == 0 {
		c.Scoring.SigmoidSlope = 6
	}
	if c.Tracking.IntervalHours <= 0 {
		c.Tracking.IntervalHours = 2
	}
	if c.Tracking.RelativeDeltaPct <= 0 {
		c.Tracking.RelativeDeltaPct = 0.05
	}
	if c.Migration.WindowHours <= 0 {
		c.Migration.WindowHours = 168
	}
	if c.Migration.ValueThresholdPct == 0 {
		c.Migration.ValueThresholdPct = 0.70
	}
	if c.Consensus.PeriodDays <= 0 {
		c.Consensus.PeriodDays = 2
	}
	if c.Consensus.MinWhalesConsensus <= 0 {
		c.Consensus.MinWhalesConsensus = 2
	}
	if c.Consensus.McapMinUSD <= 0 {
		c.Consensus.McapMinUSD = 100_000
	}
	if c.Consensus.McapMaxUSD <= 0 {
		c.Consensus.McapMaxUSD = 100_000_000
	}
	if len(c.Consensus.Stablecoins) == 0 {
		c.Consensus.Stablecoins = c.Oracle.Stablecoins
	}
	if c.Elasticsearch.SmartWalletIndex == "" {
		c.Elasticsearch.SmartWalletIndex = "smart_wallet"
	}
	if c.Elasticsearch.QualifiedWalletIndex == "" {
		c.Elasticsearch.QualifiedWalletIndex = "qualified_wallet"
	}
}

func WatchConfig(config *Config) {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := InitConfig()
		*config = newConfig
		logger.SetLogLevel(config.Log.Level)
	})
}
