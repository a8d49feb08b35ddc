package writer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"smartwallet/internal/core/model"
	"smartwallet/pkg/elasticsearch"
)

// ESSmartWalletWriter mirrors elected smart wallets into Elasticsearch
// for the dashboard/reporting read path, generalized from the
// teacher's writer/wallet/es.go bulk-index pattern: one doc per
// wallet, ID'd by wallet address rather than (chain_id,
// wallet_address). The Routing value set on each document is not sent
// by elasticsearch.Client.BulkWrite.
type ESSmartWalletWriter struct {
	esClient *elasticsearch.Client
	logger   *zap.Logger
	index    string
}

func NewESSmartWalletWriter(esClient *elasticsearch.Client, logger *zap.Logger, index string) BatchWriter[model.SmartWallet] {
	return &ESSmartWalletWriter{esClient: esClient, logger: logger, index: index}
}

func (w *ESSmartWalletWriter) BWrite(ctx context.Context, wallets []model.SmartWallet) error {
	if len(wallets) == 0 {
		return nil
	}

	operations := make([]elasticsearch.BulkOperation, 0, len(wallets))
	for _, sw := range wallets {
		operations = append(operations, elasticsearch.BulkOperation{
			Action:  "index",
			Index:   w.index,
			ID:      sw.Wallet,
			Routing: sw.Wallet,
			Document: map[string]interface{}{
				"wallet":                 sw.Wallet,
				"optimal_threshold_tier": sw.OptimalThresholdTier,
				"quality_score":          sw.QualityScore,
				"threshold_status":       sw.ThresholdStatus,
				"j_score_max":            sw.JScoreMax,
				"j_score_avg":            sw.JScoreAvg,
				"reliable_tiers_count":   sw.ReliableTiersCount,
				"updated_at":             sw.UpdatedAt,
			},
		})
	}
	return w.esClient.BulkWrite(ctx, operations)
}

func (w *ESSmartWalletWriter) Close() error { return nil }

// ESQualifiedWalletWriter does the same for the qualification-stage
// output, so a dashboard can show "qualified but not yet elected"
// wallets without querying Postgres directly.
type ESQualifiedWalletWriter struct {
	esClient *elasticsearch.Client
	logger   *zap.Logger
	index    string
}

func NewESQualifiedWalletWriter(esClient *elasticsearch.Client, logger *zap.Logger, index string) BatchWriter[model.QualifiedWallet] {
	return &ESQualifiedWalletWriter{esClient: esClient, logger: logger, index: index}
}

func (w *ESQualifiedWalletWriter) BWrite(ctx context.Context, wallets []model.QualifiedWallet) error {
	if len(wallets) == 0 {
		return nil
	}

	operations := make([]elasticsearch.BulkOperation, 0, len(wallets))
	for _, q := range wallets {
		operations = append(operations, elasticsearch.BulkOperation{
			Action:  "index",
			Index:   w.index,
			ID:      fmt.Sprintf("%s_%d", q.Wallet, q.UpdatedAt.Unix()),
			Routing: q.Wallet,
			Document: map[string]interface{}{
				"wallet":         q.Wallet,
				"score":          q.Score,
				"weighted_roi":   q.WeightedROI,
				"win_rate":       q.WinRate,
				"trade_count":    q.TradeCount,
				"classification": q.Classification,
				"updated_at":     q.UpdatedAt,
			},
		})
	}
	return w.esClient.BulkWrite(ctx, operations)
}

func (w *ESQualifiedWalletWriter) Close() error { return nil }
