package pgdb

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/catalog-recommender/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const (
	outboxColumns = `id, event_id, event_type, product_id, payload, status, created_at, processing_started_at, processed_at`

	// событие в processing дольше этого срока считается брошенным упавшим воркером
	staleProcessingAfter = 5 * time.Minute
)

// OutboxEventRepo хранит события товаров до отправки в Kafka.
// Create работает только внутри транзакции записи товара.
type OutboxEventRepo struct {
	pool *pgxpool.Pool
	conv converter.OutboxEventConverter
}

func NewOutboxEventRepo(pool *pgxpool.Pool, conv converter.OutboxEventConverter) *OutboxEventRepo {
	return &OutboxEventRepo{pool: pool, conv: conv}
}

func (o *OutboxEventRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := o.conv.ToModel(event)
	query := `
		INSERT INTO outbox_events (event_id, event_type, product_id, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err = tx.QueryRow(ctx, query,
		model.EventID, model.EventType, model.ProductID, model.Payload, model.Status, model.CreatedAt,
	).Scan(&model.ID, &model.CreatedAt)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, fmt.Errorf("%s: event %s already exists", whereami.WhereAmI(), event.EventID)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	// NOTIFY доставляется слушателям только после коммита
	if _, err := tx.Exec(ctx, "NOTIFY "+outboxChannel); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(model), nil
}

// GetAndMarkAsProcessing забирает пачку pending-событий и событий, зависших в processing.
// SKIP LOCKED позволяет запускать несколько воркеров.
func (o *OutboxEventRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	query := `
		UPDATE outbox_events
		SET status = $1, processing_started_at = now()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = $2
			   OR (status = $1 AND processing_started_at < now() - make_interval(secs => $3))
			ORDER BY created_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + outboxColumns

	var models []*converter.OutboxEventModel
	err := pgx.BeginFunc(ctx, o.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query,
			usecase.Processing, usecase.Pending, staleProcessingAfter.Seconds(), limit,
		)
		if err != nil {
			return err
		}

		models, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[converter.OutboxEventModel])
		return err
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToArrEntity(models), nil
}

// MarkAsProcessed не считает ошибкой событие, которое уже закрыл другой воркер.
func (o *OutboxEventRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	return o.setStatus(ctx, id, `status = $1, processed_at = now()`, usecase.Processed)
}

func (o *OutboxEventRepo) ReturnToPending(ctx context.Context, id int64) error {
	return o.setStatus(ctx, id, `status = $1, processing_started_at = NULL`, usecase.Pending)
}

func (o *OutboxEventRepo) MarkAsFailed(ctx context.Context, id int64) error {
	return o.setStatus(ctx, id, `status = $1, processed_at = now()`, usecase.Failed)
}

func (o *OutboxEventRepo) setStatus(ctx context.Context, id int64, set string, status usecase.OutboxStatus) error {
	query := `UPDATE outbox_events SET ` + set + ` WHERE id = $2 AND status = $3`

	if _, err := tr.QuerierFromCtx(ctx, o.pool).Exec(ctx, query, status, id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: event %d -> %s: %w", whereami.WhereAmI(), id, status, err)
	}

	return nil
}

// outboxChannel совпадает с каналом LISTEN в kafka.OutboxWorker.
const outboxChannel = "outbox_pending"
