package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"smartwallet/internal/core/config"
	"smartwallet/pkg/database"
	"smartwallet/pkg/elasticsearch"
	"smartwallet/pkg/evm_client"
	"smartwallet/pkg/solana_client"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var once sync.Once
var r *repositoryImpl

// New returns the process-wide Repository singleton, initialized on
// first call, exactly as the teacher's `repository.New` does —
// connections are expensive enough (Postgres pool, Redis, Kafka
// writer, N EVM RPC dials) that every job in the scheduler must share
// one instance rather than redial per stage.
func New(cfg config.Config, logger *zap.Logger) Repository {
	once.Do(func() {
		r = &repositoryImpl{
			cfg:    cfg,
			logger: logger,
		}
		r.init()
	})
	return r
}

type repositoryImpl struct {
	cfg          config.Config
	logger       *zap.Logger
	db           *gorm.DB
	mainRdb      *redis.Client
	metricsRdb   *redis.Client
	mq           *kafka.Writer
	solanaClient *rpc.Client
	evmClients   map[string]*ethclient.Client
	esClient     *elasticsearch.Client
}

func (r *repositoryImpl) init() {
	var err error
	r.db, err = database.InitPG(r.cfg.Postgres.DSN)
	if err != nil {
		panic(err)
	}

	r.mainRdb = redis.NewClient(&redis.Options{
		Addr:     r.cfg.Redis.Address,
		Password: r.cfg.Redis.Password,
		DB:       r.cfg.Redis.DB,
		PoolSize: 20,
	})
	if err := r.mainRdb.Ping(context.Background()).Err(); err != nil {
		r.logger.Warn("failed to connect to redis, continue", zap.Error(err))
	}

	r.metricsRdb = redis.NewClient(&redis.Options{
		Addr:     r.cfg.Redis.Address,
		Password: r.cfg.Redis.Password,
		DB:       r.cfg.Redis.DBMetrics,
	})
	if err := r.metricsRdb.Ping(context.Background()).Err(); err != nil {
		r.logger.Warn("failed to connect to metrics redis, continue", zap.Error(err))
	}

	brokers := strings.Split(r.cfg.Kafka.Brokers, ",")
	r.mq = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    1000,
		BatchBytes:   1024 * 1024,
		Async:        false,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		MaxAttempts:  5,
		WriteTimeout: 500 * time.Millisecond,
	}

	r.evmClients = make(map[string]*ethclient.Client, len(r.cfg.Chains.EVMRPCURLs))
	for chain, url := range r.cfg.Chains.EVMRPCURLs {
		r.evmClients[chain] = evm_client.Init(url)
	}
	r.solanaClient = solana_client.Init(r.cfg.Chains.SolanaRPCURL)

	if len(r.cfg.Elasticsearch.Addresses) > 0 {
		es, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: r.cfg.Elasticsearch.Addresses,
			Username:  r.cfg.Elasticsearch.Username,
			Password:  r.cfg.Elasticsearch.Password,
		}, r.logger)
		if err != nil {
			r.logger.Warn("failed to connect to elasticsearch, mirroring disabled", zap.Error(err))
		} else {
			r.esClient = es
		}
	}
}

func (r *repositoryImpl) GetMainRDB() *redis.Client    { return r.mainRdb }
func (r *repositoryImpl) GetMetricsRDB() *redis.Client { return r.metricsRdb }
func (r *repositoryImpl) GetDB() *gorm.DB              { return r.db }
func (r *repositoryImpl) GetMQ() MQClient              { return r.mq }
func (r *repositoryImpl) GetSolanaClient() *rpc.Client { return r.solanaClient }

func (r *repositoryImpl) GetEVMClient(chain string) (*ethclient.Client, bool) {
	c, ok := r.evmClients[chain]
	return c, ok
}

func (r *repositoryImpl) GetEVMClients() map[string]*ethclient.Client {
	return r.evmClients
}

// GetESClient returns the Elasticsearch mirror client, or nil when no
// addresses are configured — callers must treat mirroring as optional.
func (r *repositoryImpl) GetESClient() *elasticsearch.Client {
	return r.esClient
}

func (r *repositoryImpl) Close() error {
	if r.db != nil {
		sqlDB, _ := r.db.DB()
		sqlDB.Close()
	}
	if r.mainRdb != nil {
		r.mainRdb.Close()
	}
	if r.metricsRdb != nil {
		r.metricsRdb.Close()
	}
	if r.mq != nil {
		r.mq.Close()
	}
	return nil
}
