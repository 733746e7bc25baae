package main

import (
	"context"
	"log/slog"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/adapter/out/journal"
	kafka_adapter "github.com/JoeShih716/go-finance-tracker/internal/app/core/adapter/out/kafka"
	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
	"github.com/JoeShih716/go-finance-tracker/internal/config"
	"github.com/JoeShih716/go-finance-tracker/pkg/hub"
	"github.com/JoeShih716/go-finance-tracker/pkg/wal"
)

// eventPipeline 狀態變更派送：Hub 加上 journal / kafka 訂閱者
//
// 關閉順序固定：先停 Hub 並等剩下的事件派送完，再關閉訂閱者。
type eventPipeline struct {
	hub    *hub.Hub[domain.Event]
	stop   context.CancelFunc
	logger *slog.Logger
	// 訂閱者的關閉函式，依註冊順序
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// newEventPipeline 依設定建立並啟動 Hub
func newEventPipeline(cfg *config.Config, logger *slog.Logger) (*eventPipeline, error) {
	ctx, stop := context.WithCancel(context.Background())
	p := &eventPipeline{
		hub:    hub.New[domain.Event](hub.DefaultBuffer),
		stop:   stop,
		logger: logger,
	}

	if cfg.Journal.Path != "" {
		w, err := wal.NewWAL(cfg.Journal.Path)
		if err != nil {
			stop()
			return nil, err
		}
		p.hub.Subscribe(journal.New(w, logger).Record)
		p.closers = append(p.closers, namedCloser{name: "journal", close: w.Close})
		logger.Info("journal enabled", "path", cfg.Journal.Path)
	}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafka_adapter.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		p.hub.Subscribe(publisher.Forward)
		p.closers = append(p.closers, namedCloser{name: "kafka", close: publisher.Close})
		logger.Info("kafka publisher enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	p.hub.Start(ctx)
	return p, nil
}

// Bus 給 Controller 使用的 EventBus
func (p *eventPipeline) Bus() *hub.Hub[domain.Event] {
	return p.hub
}

// Close 停止 Hub，等佇列清空後才關閉訂閱者
func (p *eventPipeline) Close() {
	p.stop()
	<-p.hub.Done()

	for i := len(p.closers) - 1; i >= 0; i-- {
		c := p.closers[i]
		if err := c.close(); err != nil {
			p.logger.Error("failed to close event subscriber", "subscriber", c.name, "error", err)
		}
	}
}
