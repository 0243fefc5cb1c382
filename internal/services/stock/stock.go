// Package stock содержит бизнес-логику выдачи рыночных данных:
// списки, карточки бумаг, скринер, статистику и выгрузку CSV.
package stock

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/flexbit-dev/flexbit-api/internal/cache"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mongo"
)

var ErrStockNotFound = errors.New("stock not found")

// StockRepository описывает контракт чтения бумаг из хранилища.
type StockRepository interface {
	ListStocks(ctx context.Context, f models.StockFilter) ([]*models.Stock, int64, error)
	GetStockByTicker(ctx context.Context, ticker string) (*models.Stock, error)
	ScreenerStocks(ctx context.Context, f models.ScreenerFilter) ([]*models.Stock, error)
	AllStocks(ctx context.Context) ([]*models.Stock, error)
	StockStats(ctx context.Context) (*models.StockStats, error)
}

// Cacher — кеш ответов. Данные меняются раз в сутки при импорте,
// короткий TTL защищает только от шторма одинаковых запросов.
type Cacher interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// ListResult — страница бумаг с метаданными пагинации.
type ListResult struct {
	Stocks []*models.Stock `json:"stocks"`
	Total  int64           `json:"total"`
	Page   int             `json:"page"`
	Pages  int64           `json:"pages"`
}

// Service реализует операции чтения рыночных данных.
type Service struct {
	log    *slog.Logger
	stocks StockRepository
	cache  Cacher
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, stocks StockRepository, c Cacher) *Service {
	return &Service{log: log, stocks: stocks, cache: c}
}

// List возвращает страницу бумаг по фильтру.
func (s *Service) List(ctx context.Context, f models.StockFilter) (*ListResult, error) {
	const op = "services.stock.List"

	key := fmt.Sprintf(cache.KeyStockList, listCacheKey(f))
	var cached ListResult
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn("cache read failed", sl.Err(err))
	} else if found {
		return &cached, nil
	}

	stocks, total, err := s.stocks.ListStocks(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if stocks == nil {
		stocks = []*models.Stock{}
	}

	result := &ListResult{
		Stocks: stocks,
		Total:  total,
		Page:   f.Page,
		Pages:  (total + int64(f.Limit) - 1) / int64(f.Limit),
	}
	if err := s.cache.Set(ctx, key, result, cache.DefaultStockTTL); err != nil {
		s.log.Warn("cache write failed", sl.Err(err))
	}
	return result, nil
}

// Detail возвращает карточку бумаги по тикеру.
func (s *Service) Detail(ctx context.Context, ticker string) (*models.Stock, error) {
	const op = "services.stock.Detail"

	key := fmt.Sprintf(cache.KeyStockDetail, ticker)
	var cached models.Stock
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn("cache read failed", sl.Err(err))
	} else if found {
		return &cached, nil
	}

	stock, err := s.stocks.GetStockByTicker(ctx, ticker)
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return nil, ErrStockNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, stock, cache.DefaultStockTTL); err != nil {
		s.log.Warn("cache write failed", sl.Err(err))
	}
	return stock, nil
}

// Screener возвращает бумаги по измерениям скоринга.
func (s *Service) Screener(ctx context.Context, f models.ScreenerFilter) ([]*models.Stock, error) {
	const op = "services.stock.Screener"

	key := fmt.Sprintf(cache.KeyStockScreen, screenerCacheKey(f))
	var cached []*models.Stock
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn("cache read failed", sl.Err(err))
	} else if found {
		return cached, nil
	}

	stocks, err := s.stocks.ScreenerStocks(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if stocks == nil {
		stocks = []*models.Stock{}
	}
	if err := s.cache.Set(ctx, key, stocks, cache.DefaultStockTTL); err != nil {
		s.log.Warn("cache write failed", sl.Err(err))
	}
	return stocks, nil
}

// Stats возвращает распределение покрытия по качеству и таймингу.
func (s *Service) Stats(ctx context.Context) (*models.StockStats, error) {
	const op = "services.stock.Stats"

	var cached models.StockStats
	if found, err := s.cache.Get(ctx, cache.KeyStockStats, &cached); err != nil {
		s.log.Warn("cache read failed", sl.Err(err))
	} else if found {
		return &cached, nil
	}

	stats, err := s.stocks.StockStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, cache.KeyStockStats, stats, cache.DefaultStockTTL); err != nil {
		s.log.Warn("cache write failed", sl.Err(err))
	}
	return stats, nil
}

// ExportCSV собирает выгрузку всех бумаг. Доступ по тарифу проверяет
// обработчик.
func (s *Service) ExportCSV(ctx context.Context) ([]byte, error) {
	const op = "services.stock.ExportCSV"

	stocks, err := s.stocks.AllStocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"ticker", "company_name", "sector", "score", "business_quality",
		"timing_score", "timing_label", "last_price", "trend", "signal",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, st := range stocks {
		record := []string{
			st.Ticker,
			st.CompanyName,
			st.Sector,
			strconv.FormatFloat(st.Analysis.Score, 'f', 1, 64),
			st.Analysis.BusinessQuality,
			strconv.FormatFloat(st.Analysis.TimingScore, 'f', 1, 64),
			st.Analysis.TimingLabel,
			strconv.FormatFloat(st.Technical.LastPrice, 'f', 0, 64),
			st.Technical.Trend,
			st.Technical.Signals.Call,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return buf.Bytes(), nil
}

func listCacheKey(f models.StockFilter) string {
	conflict := "any"
	if f.Conflict != nil {
		conflict = strconv.FormatBool(*f.Conflict)
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s:%d:%d",
		f.Keyword, f.Quality, f.Timing, conflict, f.Sort, f.Page, f.Limit)
}

func screenerCacheKey(f models.ScreenerFilter) string {
	minScore, maxScore := "any", "any"
	if f.MinScore != nil {
		minScore = strconv.FormatFloat(*f.MinScore, 'f', -1, 64)
	}
	if f.MaxScore != nil {
		maxScore = strconv.FormatFloat(*f.MaxScore, 'f', -1, 64)
	}
	return fmt.Sprintf("%s:%s:%s:%s", f.Quality, f.Timing, minScore, maxScore)
}
