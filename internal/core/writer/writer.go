package writer

import "context"

// BatchWriter is the sink contract an AsyncBatchWriter flushes into —
// implemented by the Elasticsearch mirror writers in es.go.
type BatchWriter[T any] interface {
	BWrite(ctx context.Context, batch []T) error
	Close() error
}
