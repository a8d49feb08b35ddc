package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// IngestTransfersFetched counts raw transfers pulled from the data
	// provider per wallet/chain (spec §4.2).
	IngestTransfersFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartwallet_ingest_transfers_fetched_total",
			Help: "Total number of raw transfers fetched from the data provider.",
		},
		[]string{"chain"},
	)
	IngestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartwallet_ingest_errors_total",
			Help: "Total number of transfer ingestion errors by kind.",
		},
		[]string{"kind"},
	)

	// FIFORecomputeCount counts full FIFO replays per wallet/token
	// (spec §4.3 — recomputation is always a full replay, never a delta).
	FIFORecomputeCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartwallet_fifo_recompute_total",
			Help: "Total number of FIFO Engine recomputations.",
		},
		[]string{"chain"},
	)
	FIFOOverflowLots = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartwallet_fifo_overflow_lots_total",
			Help: "Total number of sells exceeding available lot inventory (treated as airdrop consumption).",
		},
		[]string{"chain"},
	)
	FIFOReplayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartwallet_fifo_replay_duration_seconds",
			Help:    "Time taken to replay one wallet's transfer history through the FIFO Engine.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"chain"},
	)

	// ScoringQualifiedWallets counts wallets that passed the Scorer's
	// qualification gates per scoring pass (spec §4.4).
	ScoringQualifiedWallets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartwallet_scoring_qualified_wallets_total",
			Help: "Total number of wallets qualified by the Scorer.",
		},
		[]string{"period"},
	)

	// ThresholdSmartWalletsElected counts wallets elected smart by the
	// Threshold Selector (spec §4.6).
	ThresholdSmartWalletsElected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartwallet_threshold_smart_wallets_elected_total",
			Help: "Total number of wallets elected as smart wallets.",
		},
		[]string{"status"},
	)

	// TrackingPositionChanges counts diffs emitted by the Live Tracker
	// (spec §4.7).
	TrackingPositionChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartwallet_tracking_position_changes_total",
			Help: "Total number of position changes detected by the Live Tracker.",
		},
		[]string{"change_type"},
	)

	// MigrationsDetected counts wallet migrations accepted by the
	// Migration Handler (spec §4.8).
	MigrationsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartwallet_migrations_detected_total",
			Help: "Total number of wallet migrations detected and persisted.",
		},
		[]string{"chain"},
	)

	// ConsensusSignalsEmitted counts consensus signals produced by the
	// Consensus Detector (spec §4.9).
	ConsensusSignalsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartwallet_consensus_signals_emitted_total",
			Help: "Total number of consensus signals emitted.",
		},
		[]string{"chain"},
	)

	// AsyncWriter* mirror the teacher's generic batch-writer metrics,
	// reused unchanged since AsyncBatchWriter itself is domain-agnostic.
	AsyncWriterBatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartwallet_async_writer_batch_size",
			Help:    "Number of items in each batch submitted to the writer.",
			Buckets: []float64{10, 50, 100, 200, 500, 1000},
		},
		[]string{"writer_id"},
	)
	AsyncWriterFlushCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartwallet_async_writer_flush_count_total",
			Help: "Total number of batch flushes triggered.",
		},
		[]string{"writer_id"},
	)
	AsyncWriterFlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartwallet_async_writer_flush_duration_seconds",
			Help:    "Time taken to flush a batch.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"writer_id"},
	)
	AsyncWriterItemsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartwallet_async_writer_items_written_total",
			Help: "Total number of items successfully written by the async writer.",
		},
		[]string{"writer_id"},
	)
)

func init() {
	prometheus.MustRegister(
		IngestTransfersFetched,
		IngestErrors,
		FIFORecomputeCount,
		FIFOOverflowLots,
		FIFOReplayDuration,
		ScoringQualifiedWallets,
		ThresholdSmartWalletsElected,
		TrackingPositionChanges,
		MigrationsDetected,
		ConsensusSignalsEmitted,
		AsyncWriterBatchSize,
		AsyncWriterFlushCount,
		AsyncWriterFlushDuration,
		AsyncWriterItemsWritten,
	)
}
