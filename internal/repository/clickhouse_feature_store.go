package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ChronoSignal/internal/domain/models"
	domrepo "ChronoSignal/internal/domain/repository"
	"ChronoSignal/internal/services/features"
	applogger "ChronoSignal/pkg/logger"
)

// CHFeatureStore implements FeatureStore backed by ClickHouse candle tables.
type CHFeatureStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

var _ domrepo.FeatureStore = (*CHFeatureStore)(nil)

func NewCHFeatureStore(db *sql.DB, database string) *CHFeatureStore {
	return &CHFeatureStore{db: db, database: database, l: applogger.NewNop()}
}

// SetLogger injects a structured logger.
func (s *CHFeatureStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

// GetLatestNCandles returns up to n candles, oldest first. 5m candles are
// folded from the 1m table.
func (s *CHFeatureStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	if n <= 0 {
		return []models.Candle{}, nil
	}
	plan, err := s.planFor(tf, n)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log := s.l.With(
		applogger.String("table", plan.table),
		applogger.String("symbol", symbol),
		applogger.String("tf", string(tf)),
		applogger.Int("limit", plan.limit),
	)

	rows, err := s.db.QueryContext(ctx, plan.query(), symbol, plan.limit)
	if err != nil {
		log.Error("clickhouse latest_candles query error", applogger.Error(err))
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Candle, 0, plan.limit)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			log.Error("clickhouse latest_candles scan error", applogger.Error(err))
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		tmp = append(tmp, c)
	}
	if err := rows.Err(); err != nil {
		log.Error("clickhouse latest_candles rows error", applogger.Error(err))
		return nil, fmt.Errorf("rows: %w", err)
	}

	out := plan.finish(tmp, n)
	log.Debug("clickhouse latest_candles ok",
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

type candlePlan struct {
	table    string
	limit    int
	resample time.Duration
}

func (p candlePlan) query() string {
	return fmt.Sprintf(`
        SELECT bucket, symbol, open, high, low, close, vol
        FROM %s
        WHERE symbol = ?
        ORDER BY bucket DESC
        LIMIT ?
    `, p.table)
}

// finish reverses DESC rows to ascending order and applies any resampling.
func (p candlePlan) finish(desc []models.Candle, n int) []models.Candle {
	for i, j := 0, len(desc)-1; i < j; i, j = i+1, j-1 {
		desc[i], desc[j] = desc[j], desc[i]
	}
	if p.resample <= 0 {
		return desc
	}
	out := features.Resample(desc, p.resample)
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

func (s *CHFeatureStore) planFor(tf domrepo.Timeframe, n int) (candlePlan, error) {
	switch tf {
	case domrepo.TF1s:
		return candlePlan{table: s.database + ".candles_1s", limit: n}, nil
	case domrepo.TF1m:
		return candlePlan{table: s.database + ".candles_1m", limit: n}, nil
	case domrepo.TF5m:
		// one extra bucket of 1m rows covers a partial leading 5m bucket
		return candlePlan{table: s.database + ".candles_1m", limit: (n + 1) * 5, resample: tf.Duration()}, nil
	default:
		return candlePlan{}, fmt.Errorf("unsupported timeframe: %s", tf)
	}
}
