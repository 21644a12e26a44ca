package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/DRSN-tech/catalog-recommender/internal/cfg"
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	headerEventType = "event-type"
	headerEventID   = "event-id"
	headerEncoding  = "content-encoding"
	encodingStruct  = "google.protobuf.Struct"
)

// ErrInvalidPayload - payload события не разбирается как JSON-объект.
var ErrInvalidPayload = errors.New("invalid event payload")

// Producer публикует события каталога в Kafka.
type Producer struct {
	writer *kafka.Writer
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) (*Producer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrIncorrectEnvVariable)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 500 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warnf("Kafka producer error: %s", err.Error())
			}
		},
	}

	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}, nil
}

// WriteRawMessage отправляет событие outbox. Ключ сообщения это id товара,
// поэтому события одного товара попадают в одну партицию по порядку.
func (p *Producer) WriteRawMessage(ctx context.Context, req *usecase.WriteRawMessageReq) error {
	msg, err := EncodeMessage(req)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return p.writer.WriteMessages(ctx, msg)
}

// EncodeMessage упаковывает JSON-payload события в google.protobuf.Struct.
func EncodeMessage(req *usecase.WriteRawMessageReq) (kafka.Message, error) {
	var payload map[string]any
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		return kafka.Message{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	envelope, err := structpb.NewStruct(map[string]any{
		"event_id":   req.EventID,
		"event_type": string(req.EventType),
		"product_id": strconv.FormatInt(req.ProductID, 10),
		"payload":    payload,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to build event envelope: %w", err)
	}

	value, err := proto.Marshal(envelope)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(strconv.FormatInt(req.ProductID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(req.EventType)},
			{Key: headerEventID, Value: []byte(req.EventID)},
			{Key: headerEncoding, Value: []byte(encodingStruct)},
		},
	}, nil
}

func (p *Producer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.Topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.Topic, err))
		}
		p.logger.Infof("Kafka topic %s created", p.cfg.Topic)
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.Topic))
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
