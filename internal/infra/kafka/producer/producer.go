package producer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

var (
	ErrProducerClosed = errors.New("producer is closed")
	ErrInvalidConfig  = errors.New("invalid kafka producer config")
)

// Producer interface defines the methods that a Kafka producer must implement
type Producer interface {
	// Produce sends messages to Kafka
	Produce(ctx context.Context, msgs []kafka.Message) error
	// Close closes the producer
	Close() error
}

type Config struct {
	Brokers       []string
	Topic         string
	RequiredAcks  int
	RetryAttempts int
	BatchTimeout  time.Duration
	DialTimeout   time.Duration
}

func DefaultConfig(brokers []string, topic string) *Config {
	return &Config{
		Brokers:       brokers,
		Topic:         topic,
		RequiredAcks:  int(kafka.RequireAll),
		RetryAttempts: 3,
		BatchTimeout:  10 * time.Millisecond,
		DialTimeout:   10 * time.Second,
	}
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("%w: no brokers", ErrInvalidConfig)
	}
	if c.Topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidConfig)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: negative retry attempts", ErrInvalidConfig)
	}
	return nil
}

// KafkaError 代表 Kafka 操作錯誤
type KafkaError struct {
	Operation string
	Topic     string
	Err       error
}

func (e *KafkaError) Error() string {
	return fmt.Sprintf("kafka operation %s on topic %s failed: %v", e.Operation, e.Topic, e.Err)
}

func (e *KafkaError) Unwrap() error {
	return e.Err
}

// IsTemporary 判斷錯誤是否值得重送
func IsTemporary(err error) bool {
	var kErr kafka.Error
	if errors.As(err, &kErr) {
		return kErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaProducer struct {
	writer messageWriter
	cfg    *Config
	closed atomic.Bool
}

// New creates a new Kafka producer
func New(cfg *Config) (Producer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Async:        false,
		MaxAttempts:  1,
		Transport: &kafka.Transport{
			Dial: (&net.Dialer{
				Timeout:   cfg.DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Str("topic", cfg.Topic).Msgf("kafka producer: "+msg, args...)
		}),
		Compression: kafka.Snappy,
	}

	return newWithWriter(cfg, writer), nil
}

func newWithWriter(cfg *Config, w messageWriter) *kafkaProducer {
	return &kafkaProducer{writer: w, cfg: cfg}
}

// Produce 同步發送, block 到所有消息寫入或重試用完
func (p *kafkaProducer) Produce(ctx context.Context, msgs []kafka.Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(msgs) == 0 {
		return nil
	}

	var err error
	for attempt := 0; attempt <= p.cfg.RetryAttempts; attempt++ {
		if ctx.Err() != nil {
			return &KafkaError{Operation: "Produce", Topic: p.cfg.Topic, Err: ctx.Err()}
		}
		err = p.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			return nil
		}
		if !IsTemporary(err) {
			break
		}
	}
	return &KafkaError{Operation: "Produce", Topic: p.cfg.Topic, Err: err}
}

func (p *kafkaProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
