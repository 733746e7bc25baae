package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
)

// DefaultTopic 狀態變更事件的 topic
const DefaultTopic = "ledger_state_changed"

// batchTimeout 事件逐筆送出，批次等待時間壓到最短
const batchTimeout = 10 * time.Millisecond

// messageKey 只有一本帳，所有事件共用 key 落在同一個 partition
const messageKey = "ledger"

// Publisher 把狀態變更事件送到 Kafka
type Publisher struct {
	writer  *kafka.Writer
	logger  *slog.Logger
	timeout time.Duration
}

func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
			// 每次只送一筆事件，不等預設 1 秒的批次
			BatchSize:    1,
			BatchTimeout: batchTimeout,
		},
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// newMessage 固定 key 保持事件順序，版本號放在 header
func newMessage(ev domain.Event) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(messageKey),
		Value: data,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(ev.Kind)},
			{Key: "version", Value: []byte(strconv.FormatUint(ev.Version, 10))},
		},
	}, nil
}

// Publish 送出一筆事件
func (p *Publisher) Publish(ctx context.Context, ev domain.Event) error {
	msg, err := newMessage(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.writer.WriteMessages(ctx, msg)
}

// Forward 當作 Hub 的訂閱者；送不出去只記 log
func (p *Publisher) Forward(ev domain.Event) {
	if err := p.Publish(context.Background(), ev); err != nil {
		p.logger.Error("failed to publish state change",
			"error", err,
			"kind", ev.Kind,
			"version", ev.Version,
		)
	}
}

// Close 關閉 writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
