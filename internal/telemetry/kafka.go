// Package telemetry publishes tick samples to Kafka.
package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/san-kum/solarsim/internal/solar"
)

// Reading is the message value written for each published tick.
type Reading struct {
	UnitID    string       `json:"unitId"`
	Timestamp time.Time    `json:"timestamp"`
	Sample    solar.Sample `json:"sample"`
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter returns a writer keyed-hashing onto the topic's partitions, so
// all readings of one unit stay ordered.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

// Publisher is a sim.Observer that forwards samples to Kafka from its own
// goroutine. OnTick never blocks the simulation; samples are dropped when
// the queue is full.
type Publisher struct {
	w      MessageWriter
	unitID string
	every  int
	log    *slog.Logger
	now    func() time.Time

	queue chan solar.Sample
	seen  int
}

// NewPublisher forwards every n-th sample (n < 1 means every sample).
func NewPublisher(w MessageWriter, unitID string, every int, log *slog.Logger) *Publisher {
	if every < 1 {
		every = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{
		w:      w,
		unitID: unitID,
		every:  every,
		log:    log.With(slog.String("component", "kafka-publisher")),
		now:    time.Now,
		queue:  make(chan solar.Sample, 256),
	}
}

// OnTick is called from the scheduler's tick goroutine only.
func (p *Publisher) OnTick(s solar.Sample) {
	p.seen++
	if p.seen%p.every != 0 {
		return
	}
	select {
	case p.queue <- s:
	default:
		p.log.Warn("telemetry queue full, dropping sample", "time", s.Time)
	}
}

// Message builds the Kafka message for one sample.
func (p *Publisher) Message(s solar.Sample) (kafka.Message, error) {
	r := Reading{UnitID: p.unitID, Timestamp: p.now().UTC(), Sample: s}
	b, err := json.Marshal(r)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Key: []byte(p.unitID), Value: b, Time: r.Timestamp}, nil
}

// Run drains the queue until ctx is done, then closes the writer.
func (p *Publisher) Run(ctx context.Context) error {
	defer func() {
		if err := p.w.Close(); err != nil {
			p.log.Error("closing kafka writer", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-p.queue:
			msg, err := p.Message(s)
			if err != nil {
				p.log.Error("marshal failed", "err", err)
				continue
			}
			if err := p.w.WriteMessages(ctx, msg); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				p.log.Error("kafka write failed", "err", err, "unitId", p.unitID)
				continue
			}
			p.log.Debug("published", "unitId", p.unitID, "time", s.Time)
		}
	}
}
