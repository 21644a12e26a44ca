package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type fakeOutbox struct {
	batches   [][]*usecase.OutboxEvent
	processed []int64
	returned  []int64
	failed    []int64
}

func (f *fakeOutbox) Create(_ context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	return event, nil
}

func (f *fakeOutbox) GetAndMarkAsProcessing(context.Context, int) ([]*usecase.OutboxEvent, error) {
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeOutbox) MarkAsProcessed(_ context.Context, id int64) error {
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutbox) ReturnToPending(_ context.Context, id int64) error {
	f.returned = append(f.returned, id)
	return nil
}

func (f *fakeOutbox) MarkAsFailed(_ context.Context, id int64) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeProducer struct {
	sent   []*usecase.WriteRawMessageReq
	failOn int64
	errs   map[int64]error
}

func (f *fakeProducer) WriteRawMessage(_ context.Context, req *usecase.WriteRawMessageReq) error {
	if req.ProductID == f.failOn {
		return errors.New("dial tcp: connection refused")
	}
	if err, ok := f.errs[req.ProductID]; ok {
		return err
	}
	f.sent = append(f.sent, req)
	return nil
}

func event(id int64) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:        id,
		EventID:   uuid.New(),
		EventType: usecase.ProductUpserted,
		ProductID: id * 100,
		Payload:   []byte(`{}`),
		Status:    usecase.Processing,
	}
}

func TestProcessBatchMarksDelivered(t *testing.T) {
	repo := &fakeOutbox{batches: [][]*usecase.OutboxEvent{{event(1), event(2), event(3)}}}
	producer := &fakeProducer{failOn: 200}
	w := NewOutboxWorker(repo, logger.New(io.Discard, zerolog.InfoLevel), producer, "")

	hasMore, err := w.processBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasMore {
		t.Error("batch with failures must not request more")
	}

	if len(repo.processed) != 2 || repo.processed[0] != 1 || repo.processed[1] != 3 {
		t.Errorf("processed = %v", repo.processed)
	}
	if len(repo.returned) != 1 || repo.returned[0] != 2 {
		t.Errorf("returned = %v", repo.returned)
	}
	if producer.sent[0].EventType != usecase.ProductUpserted || producer.sent[0].ProductID != 100 {
		t.Errorf("sent = %+v", producer.sent[0])
	}
}

func TestProcessBatchMarksPermanentFailures(t *testing.T) {
	repo := &fakeOutbox{batches: [][]*usecase.OutboxEvent{{event(1), event(2), event(3), event(4)}}}
	producer := &fakeProducer{errs: map[int64]error{
		100: kafka.MessageSizeTooLarge,
		200: fmt.Errorf("encode: %w", ErrInvalidPayload),
		300: errors.New("unexpected EOF"),
	}}
	w := NewOutboxWorker(repo, logger.New(io.Discard, zerolog.InfoLevel), producer, "")

	if _, err := w.processBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.failed) != 2 || repo.failed[0] != 1 || repo.failed[1] != 2 {
		t.Errorf("failed = %v, want [1 2]", repo.failed)
	}
	if len(repo.returned) != 1 || repo.returned[0] != 3 {
		t.Errorf("unknown errors must be retried, returned = %v", repo.returned)
	}
	if len(repo.processed) != 1 || repo.processed[0] != 4 {
		t.Errorf("processed = %v", repo.processed)
	}
}

func TestIsPermanentError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"message too large", kafka.MessageSizeTooLarge, true},
		{"leader not available", kafka.LeaderNotAvailable, false},
		{"connection refused", errors.New("dial tcp: connection refused"), false},
		{"context canceled", context.Canceled, false},
		{"invalid payload", ErrInvalidPayload, true},
		{"unknown", errors.New("something odd"), false},
		{"write errors permanent", kafka.WriteErrors{kafka.MessageSizeTooLarge}, true},
		{"write errors mixed", kafka.WriteErrors{kafka.MessageSizeTooLarge, kafka.LeaderNotAvailable}, false},
		{"write errors empty", kafka.WriteErrors{nil}, false},
	}

	for _, tt := range tests {
		if got := isPermanentError(tt.err); got != tt.want {
			t.Errorf("%s: isPermanentError = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDrainStopsOnEmptyQueue(t *testing.T) {
	full := make([]*usecase.OutboxEvent, 0, outboxBatchSize)
	for i := int64(1); i <= outboxBatchSize; i++ {
		full = append(full, event(i))
	}
	repo := &fakeOutbox{batches: [][]*usecase.OutboxEvent{full, {event(11)}}}
	w := NewOutboxWorker(repo, logger.New(io.Discard, zerolog.InfoLevel), &fakeProducer{}, "")

	w.drain(context.Background())

	if len(repo.processed) != outboxBatchSize+1 {
		t.Errorf("processed %d events, want %d", len(repo.processed), outboxBatchSize+1)
	}
	if len(repo.batches) != 0 {
		t.Error("expected all batches consumed")
	}
}

func TestIsRetryableError(t *testing.T) {
	if !isRetryableError(errors.New("kafka: Broker Not Available")) {
		t.Error("broker not available must be retryable")
	}
	if isRetryableError(errors.New("message too large")) {
		t.Error("message too large must not be retryable")
	}
	if !isRetryableError(kafka.LeaderNotAvailable) {
		t.Error("leader not available must be retryable")
	}
	if isRetryableError(kafka.MessageSizeTooLarge) {
		t.Error("kafka MessageSizeTooLarge must not be retryable")
	}
	if isRetryableError(nil) {
		t.Error("nil is not retryable")
	}
}
