// Package notify implements the outbound Kafka sink for Consensus
// Detector signals, generalized from the teacher's Kafka producer
// writer pattern (internal/worker/repository's kafka.Writer usage) to
// emit a single domain event type with an idempotency key.
package notify

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"smartwallet/internal/core/model"
)

// ConsensusSink publishes ConsensusSignal events, keyed by
// (contract_address, period_start) so downstream consumers can
// deduplicate retries or replayed signals.
type ConsensusSink struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

func NewConsensusSink(writer *kafka.Writer, topic string, logger *zap.Logger) *ConsensusSink {
	return &ConsensusSink{writer: writer, topic: topic, logger: logger}
}

func (s *ConsensusSink) Publish(ctx context.Context, signal model.ConsensusSignal) error {
	payload, err := sonic.Marshal(signal)
	if err != nil {
		return fmt.Errorf("marshal consensus signal: %w", err)
	}

	key := fmt.Sprintf("%s:%d", signal.ContractAddress, signal.PeriodStart.Unix())
	msg := kafka.Message{
		Topic: s.topic,
		Key:   []byte(key),
		Value: payload,
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.logger.Error("failed to publish consensus signal", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("publish consensus signal: %w", err)
	}
	return nil
}
