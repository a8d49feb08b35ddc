package repository

import (
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"

	"smartwallet/pkg/elasticsearch"
)

type RedisClient = *redis.Client
type DBClient = *gorm.DB
type MQClient = *kafka.Writer

// Repository is the shared singleton of infrastructure clients every
// stage is wired against, generalized from the teacher's repository
// interface: the single BSC client becomes a chain-keyed map so any
// number of EVM chains can be tracked side by side with Solana.
type Repository interface {
	GetMainRDB() RedisClient
	GetMetricsRDB() RedisClient
	GetDB() DBClient
	GetMQ() MQClient
	GetEVMClient(chain string) (*ethclient.Client, bool)
	GetEVMClients() map[string]*ethclient.Client
	GetSolanaClient() *rpc.Client
	GetESClient() *elasticsearch.Client
	Close() error
}
