package kafka

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	applogger "ChronoSignal/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Reader is the subset of *kafka.Reader the consumer relies on.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReaderFactory builds a reader for one topic.
type ReaderFactory func(topic string) Reader

// Consumer fans topic readers into a fixed worker pool. Messages from the
// same (topic, partition) always land on the same worker, so per-partition
// order is kept.
type Consumer struct {
	cfg       *ConsumerConfig
	log       *applogger.Logger
	newReader ReaderFactory
	dlq       Writer
	metrics   *consumerMetrics

	handlers map[string]MessageHandler
	readers  map[string]Reader
	queues   []chan kafka.Message

	cancel    context.CancelFunc
	fetchWG   sync.WaitGroup
	workerWG  sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewConsumer creates a consumer backed by segmentio readers.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "chronosignal",
		WorkerCount: 1,
		BufferSize:  64,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	factory := func(topic string) Reader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    topic,
			GroupID:  cfg.GroupID,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		})
	}
	var dlq Writer
	if cfg.DLQTopic != "" {
		dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}
	return newConsumer(cfg, factory, dlq), nil
}

// NewConsumerWithReaders is NewConsumer with caller-supplied readers and DLQ writer.
func NewConsumerWithReaders(factory ReaderFactory, dlq Writer, opts ...ConsumerOption) *Consumer {
	cfg := &ConsumerConfig{WorkerCount: 1, BufferSize: 64, RetryMax: 3, BackoffMin: time.Millisecond, BackoffMax: 10 * time.Millisecond}
	for _, opt := range opts {
		opt(cfg)
	}
	return newConsumer(cfg, factory, dlq)
}

func newConsumer(cfg *ConsumerConfig, factory ReaderFactory, dlq Writer) *Consumer {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &Consumer{
		cfg:       cfg,
		log:       applogger.NewNop(),
		newReader: factory,
		dlq:       dlq,
		metrics:   newConsumerMetrics(cfg.Registerer),
		handlers:  make(map[string]MessageHandler),
		readers:   make(map[string]Reader),
	}
}

func (c *Consumer) SetLogger(l *applogger.Logger) {
	if l != nil {
		c.log = l
	}
}

// RegisterHandler registers a handler for its topic. Must be called before Start.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// Start launches the worker pool and one fetch loop per registered topic.
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.handlers) == 0 {
		return errors.New("no handlers registered")
	}

	c.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		c.cancel = cancel

		c.queues = make([]chan kafka.Message, c.cfg.WorkerCount)
		for i := range c.queues {
			c.queues[i] = make(chan kafka.Message, c.cfg.BufferSize)
			c.workerWG.Add(1)
			go c.worker(runCtx, c.queues[i])
		}

		for topic := range c.handlers {
			r := c.newReader(topic)
			c.readers[topic] = r
			c.fetchWG.Add(1)
			go c.fetch(runCtx, topic, r)
		}
		c.log.Info("kafka consumer started",
			applogger.Int("workers", c.cfg.WorkerCount),
			applogger.Int("topics", len(c.readers)),
		)
	})
	return nil
}

// Stop halts fetching, lets workers drain their queues, then closes readers.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		if c.cancel == nil {
			return
		}
		c.cancel()
		c.fetchWG.Wait()
		for _, q := range c.queues {
			close(q)
		}

		done := make(chan struct{})
		go func() {
			c.workerWG.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			stopErr = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if err := r.Close(); err != nil {
				c.log.Warn("kafka reader close", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.log.Warn("kafka dlq close", applogger.Error(err))
			}
		}
		c.log.Info("kafka consumer stopped")
	})
	return stopErr
}

func (c *Consumer) fetch(ctx context.Context, topic string, r Reader) {
	defer c.fetchWG.Done()
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("kafka fetch", applogger.String("topic", topic), applogger.Error(err))
			if !sleepCtx(ctx, c.cfg.BackoffMin) {
				return
			}
			continue
		}
		if msg.Topic == "" {
			msg.Topic = topic
		}

		q := c.queues[c.route(msg)]
		select {
		case q <- msg:
			c.metrics.queueDepth.WithLabelValues(topic).Set(float64(len(q)))
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) route(msg kafka.Message) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(msg.Topic))
	return int((h.Sum32() + uint32(msg.Partition)) % uint32(len(c.queues)))
}

func (c *Consumer) worker(ctx context.Context, q <-chan kafka.Message) {
	defer c.workerWG.Done()
	for msg := range q {
		c.process(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	handler, ok := c.handlers[msg.Topic]
	if !ok {
		return
	}
	start := time.Now()

	var err error
	attempts := 0
	for {
		attempts++
		err = c.safeHandle(handler, msg.Value)
		if err == nil || attempts > c.cfg.RetryMax {
			break
		}
		if !sleepCtx(ctx, backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)) {
			break
		}
	}

	result := "ok"
	if err != nil {
		result = "error"
		c.log.Error("kafka handle failed",
			applogger.String("topic", msg.Topic),
			applogger.Int("partition", msg.Partition),
			applogger.Int64("offset", msg.Offset),
			applogger.Int("attempts", attempts),
			applogger.Error(err),
		)
		if c.dlq != nil && c.cfg.DLQTopic != "" {
			result = "dlq"
			if dlqErr := c.dlq.WriteMessages(context.Background(), kafka.Message{
				Topic:   c.cfg.DLQTopic,
				Key:     msg.Key,
				Value:   msg.Value,
				Time:    time.Now(),
				Headers: []kafka.Header{{Key: "source_topic", Value: []byte(msg.Topic)}},
			}); dlqErr != nil {
				c.log.Error("kafka dlq write", applogger.String("topic", c.cfg.DLQTopic), applogger.Error(dlqErr))
			}
		}
	}

	// Commit on success or after a DLQ hand-off so poison messages do not loop.
	if err == nil || result == "dlq" {
		if r := c.readers[msg.Topic]; r != nil {
			_ = c.commitWithRetry(r, msg, 3)
		}
	}
	c.metrics.handled.WithLabelValues(msg.Topic, result).Inc()
	c.metrics.latency.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
}

func (c *Consumer) safeHandle(h MessageHandler, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(context.Background(), data)
}

func (c *Consumer) commitWithRetry(r Reader, msg kafka.Message, max int) error {
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, msg)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("kafka commit failed", applogger.String("topic", msg.Topic), applogger.Int("attempts", max), applogger.Error(err))
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	exp := min * time.Duration(1<<uint(attempt-1))
	if exp > max || exp <= 0 {
		exp = max
	}
	// up to 50% jitter
	if half := int64(exp) / 2; half > 0 {
		exp -= time.Duration(rand.Int63n(half))
	}
	return exp
}
