package usecase

import (
	"context"
	"fmt"

	"ChronoSignal/internal/domain/models"
	domrepo "ChronoSignal/internal/domain/repository"
	"ChronoSignal/internal/services/features"
)

const maxCandles = 5000

// CandlesUseCase exposes the candles the analyzer reads, for charting and debugging.
type CandlesUseCase struct {
	store domrepo.FeatureStore
}

func NewCandlesUseCase(store domrepo.FeatureStore) *CandlesUseCase {
	return &CandlesUseCase{store: store}
}

type GetCandlesParams struct {
	Symbol    string
	Timeframe domrepo.Timeframe
	Limit     int
}

type GetCandlesResult struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Count     int             `json:"count"`
	Closes    []float64       `json:"closes"`
	Candles   []models.Candle `json:"candles"`
}

func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if uc.store == nil {
		return nil, ErrNoFeatureStore
	}
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.Limit <= 0 {
		p.Limit = 120
	}
	if p.Limit > maxCandles {
		p.Limit = maxCandles
	}
	if !p.Timeframe.Valid() {
		p.Timeframe = domrepo.DefaultTimeframe()
	}

	candles, err := uc.store.GetLatestNCandles(ctx, p.Symbol, p.Limit, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s/%s: %w", p.Symbol, p.Timeframe, ErrNoData)
	}

	return &GetCandlesResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		Count:     len(candles),
		Closes:    features.Closes(candles),
		Candles:   candles,
	}, nil
}
