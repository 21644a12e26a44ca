package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
)

const (
	outboxChannel   = "outbox_pending"
	outboxBatchSize = 10
	pollInterval    = 30 * time.Second
)

// errPermanentDelivery помечает ошибки, после которых событие не возвращается в очередь.
var errPermanentDelivery = errors.New("permanent Kafka failure")

// OutboxWorker переносит события товаров из outbox_events в Kafka.
// Будится по NOTIFY outbox_pending, а раз в pollInterval забирает то, что вернулось в очередь.
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	logger    logger.Logger
	producer  usecase.MessageProducer
	stop      chan struct{}
	stopOnce  sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	dbConnStr string
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	dbConnStr string,
) *OutboxWorker {
	return &OutboxWorker{
		repo:      repo,
		logger:    logger,
		producer:  producer,
		stop:      make(chan struct{}),
		dbConnStr: dbConnStr,
	}
}

// Start запускает цикл обработки и LISTEN-подписку. Stop отменяет обе горутины.
func (w *OutboxWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

func (w *OutboxWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		if w.cancel != nil {
			w.cancel()
		}
	})
	w.wg.Wait()
}

func (w *OutboxWorker) run(ctx context.Context) {
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Outbox worker stopped by context cancellation")
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	var conn *pgx.Conn

	connect := func() error {
		var err error
		conn, err = pgx.Connect(ctx, w.dbConnStr)
		if err != nil {
			return e.Wrap("failed to connect for LISTEN", err)
		}

		if _, err = conn.Exec(ctx, "LISTEN "+outboxChannel); err != nil {
			conn.Close(ctx)
			conn = nil
			return e.Wrap("failed to LISTEN", err)
		}

		w.logger.Infof("Subscribed to '%s' channel", outboxChannel)
		return nil
	}

	if err := connect(); err != nil {
		w.logger.Warnf("Initial connect failed: %v", err)
		return
	}
	defer func() {
		if conn != nil {
			conn.Close(context.Background())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		if conn == nil {
			if err := connect(); err != nil {
				w.logger.Warnf("Reconnect failed: %v", err)
				if !w.sleep(ctx, 5*time.Second) {
					return
				}
			}
			continue
		}

		waitCtx, cancel := context.WithTimeout(ctx, pollInterval)
		notif, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
			conn.Close(ctx)
			conn = nil
			if !w.sleep(ctx, 2*time.Second) {
				return
			}
			continue
		}

		if notif != nil && notif.Channel == outboxChannel {
			w.logger.Debugf("Received outbox notification, draining outbox events")
			w.drain(ctx)
		}
	}
}

// drain обрабатывает пачки, пока в очереди есть события.
func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("Batch processing failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

// processBatch возвращает true, если пачка была полной и стоит забрать следующую.
func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, outboxBatchSize)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	failed := 0
	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			failed++
			if errors.Is(err, errPermanentDelivery) {
				w.logger.Errorf(err, "outbox event %s (product %d) dropped", event.EventID, event.ProductID)
				if err := w.repo.MarkAsFailed(ctx, event.ID); err != nil {
					w.logger.Warnf("mark as failed: %v", err)
				}
				continue
			}
			w.logger.Warnf("outbox event %s (product %d) not delivered: %v", event.EventID, event.ProductID, err)
			if err := w.repo.ReturnToPending(ctx, event.ID); err != nil {
				w.logger.Warnf("return to pending failed: %v", err)
			}
			continue
		}
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	// упавшие события ждут следующего тика, иначе drain крутился бы на них без паузы
	return failed == 0 && len(events) == outboxBatchSize, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	if err := w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(event)); err != nil {
		if isPermanentError(err) {
			return fmt.Errorf("%w: %w", errPermanentDelivery, err)
		}
		return e.Wrap("temporary Kafka failure, will retry", err)
	}
	return nil
}

func (w *OutboxWorker) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	case <-w.stop:
		return false
	}
}

// isRetryableError отделяет сетевые сбои и временные ошибки брокера от ошибок самого сообщения.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	} {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}

// isPermanentError отвечает true только для ошибок, которые повторная отправка не исправит:
// битый payload и невременные ошибки брокера по самому сообщению. Неизвестные ошибки повторяются.
func isPermanentError(err error) bool {
	if err == nil || isRetryableError(err) {
		return false
	}

	if errors.Is(err, ErrInvalidPayload) {
		return true
	}

	var werrs kafka.WriteErrors
	if errors.As(err, &werrs) {
		permanent := false
		for _, werr := range werrs {
			if werr == nil {
				continue
			}
			if !isPermanentError(werr) {
				return false
			}
			permanent = true
		}
		return permanent
	}

	var kerr kafka.Error
	return errors.As(err, &kerr)
}
