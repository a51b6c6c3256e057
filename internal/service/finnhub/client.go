package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"ChronoSignal/internal/domain/models"
	applogger "ChronoSignal/pkg/logger"

	"github.com/gorilla/websocket"
)

// TickSink receives every trade print from the stream.
type TickSink interface {
	HandleTick(ctx context.Context, t models.Tick) error
}

type Config struct {
	URL            string
	APIKey         string
	Symbols        []string
	ReconnectDelay time.Duration
	PingInterval   time.Duration
}

// Client streams Finnhub trades into a TickSink, reconnecting until its
// context ends.
type Client struct {
	cfg       Config
	sink      TickSink
	dialer    *websocket.Dialer
	log       *applogger.Logger
	connected atomic.Bool
}

func New(cfg Config, sink TickSink) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Client{cfg: cfg, sink: sink, dialer: websocket.DefaultDialer, log: applogger.NewNop()}
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) {
	if l != nil {
		c.log = l
	}
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected.Load() }

// Run connects, subscribes and forwards trades until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		c.connected.Store(false)
		if ctx.Err() != nil {
			return nil
		}
		c.log.Warn("finnhub stream lost, reconnecting",
			applogger.Error(err),
			applogger.Duration("delay", c.cfg.ReconnectDelay),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

type fhTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type fhMessage struct {
	Type string    `json:"type"`
	Data []fhTrade `json:"data"`
}

func (c *Client) session(ctx context.Context) error {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("finnhub url: %w", err)
	}
	q := u.Query()
	q.Set("token", c.cfg.APIKey)
	u.RawQuery = q.Encode()

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("finnhub connect: %w", err)
	}
	defer conn.Close()

	// gorilla allows one concurrent writer
	var wmu sync.Mutex
	write := func(mt int, b []byte) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteMessage(mt, b)
	}

	for _, s := range c.cfg.Symbols {
		b, _ := json.Marshal(map[string]string{"type": "subscribe", "symbol": s})
		if err := write(websocket.TextMessage, b); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
	}
	c.connected.Store(true)
	c.log.Info("finnhub connected", applogger.Strings("symbols", c.cfg.Symbols))

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close() // unblocks ReadMessage
				return
			case <-done:
				return
			case <-ticker.C:
				_ = write(websocket.PingMessage, nil)
			}
		}
	}()

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("finnhub read: %w", err)
		}
		var m fhMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
			continue
		}
		for _, d := range m.Data {
			t := models.Tick{Symbol: d.S, Timestamp: d.T, Price: d.P, Volume: d.V}
			if err := c.sink.HandleTick(ctx, t); err != nil {
				c.log.Warn("finnhub tick", applogger.String("symbol", d.S), applogger.Error(err))
			}
		}
	}
}
