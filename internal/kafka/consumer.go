package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/RaikyD/laundry-queue/internal/domain"
	"github.com/RaikyD/laundry-queue/internal/logger"
)

type ConsumerConfig struct {
	Brokers string
	Topic   string
	GroupID string
}

// IntakeMessage is a customer drop-off submitted from outside the web UI.
type IntakeMessage struct {
	Name         string `json:"name"`
	ClothesCount int    `json:"clothesCount"`
}

// Adder is the part of the queue service the consumer needs.
type Adder interface {
	Add(name string, clothesCount int) (domain.Order, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       messageReader
	svc     Adder
	backoff time.Duration
}

func NewConsumer(svc Adder, cfg ConsumerConfig) *Consumer {
	brokers := strings.Split(cfg.Brokers, ",")

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         brokers,
		GroupID:         cfg.GroupID,
		Topic:           cfg.Topic,
		MinBytes:        1,
		MaxBytes:        10e6,
		CommitInterval:  0,
		StartOffset:     kafka.FirstOffset,
		ReadLagInterval: -1,
	})

	logger.Info("kafka consumer created", "brokers", cfg.Brokers, "topic", cfg.Topic, "group", cfg.GroupID)
	return &Consumer{r: r, svc: svc, backoff: 300 * time.Millisecond}
}

// Run reads intake messages until ctx is cancelled. Invalid messages are
// committed and skipped so they do not block the partition.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.r.Close()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("kafka fetch error", "err", err)
			if !sleepCtx(ctx, c.backoff) {
				return nil
			}
			continue
		}

		c.handle(m)

		if err := c.r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("kafka commit failed", "err", err)
		}
	}
}

func (c *Consumer) handle(m kafka.Message) {
	var in IntakeMessage
	if err := json.Unmarshal(m.Value, &in); err != nil {
		logger.Warn("kafka invalid json, skip", "err", err, "partition", m.Partition, "offset", m.Offset)
		return
	}

	o, err := c.svc.Add(in.Name, in.ClothesCount)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			logger.Warn("kafka intake rejected", "err", err, "offset", m.Offset)
			return
		}
		logger.Warn("kafka intake add failed", "err", err, "offset", m.Offset)
		return
	}
	logger.Info("order added from intake", "id", o.ID, "partition", m.Partition, "offset", m.Offset)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
