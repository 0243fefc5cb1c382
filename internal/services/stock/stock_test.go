package stock_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/services/stock"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mongo"
)

// Мок для StockRepository
type StockRepoMock struct {
	mock.Mock
}

func (m *StockRepoMock) ListStocks(ctx context.Context, f models.StockFilter) ([]*models.Stock, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Stock), args.Get(1).(int64), args.Error(2)
}

func (m *StockRepoMock) GetStockByTicker(ctx context.Context, ticker string) (*models.Stock, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stock), args.Error(1)
}

func (m *StockRepoMock) ScreenerStocks(ctx context.Context, f models.ScreenerFilter) ([]*models.Stock, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Stock), args.Error(1)
}

func (m *StockRepoMock) AllStocks(ctx context.Context) ([]*models.Stock, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Stock), args.Error(1)
}

func (m *StockRepoMock) StockStats(ctx context.Context) (*models.StockStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockStats), args.Error(1)
}

// fakeCache — кеш в памяти для проверки попаданий без redis.
type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Get(_ context.Context, key string, result any) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, result)
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func newService(repo *StockRepoMock) (*stock.Service, *fakeCache) {
	c := newFakeCache()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return stock.New(log, repo, c), c
}

func TestService_List(t *testing.T) {
	filter := models.StockFilter{Keyword: "bank", Sort: "score", Page: 1, Limit: 20}
	stocks := []*models.Stock{{Ticker: "BBCA"}, {Ticker: "BBRI"}}

	t.Run("страница с метаданными пагинации", func(t *testing.T) {
		repo := new(StockRepoMock)
		repo.On("ListStocks", mock.Anything, filter).
			Return(stocks, int64(41), nil).Once()
		svc, _ := newService(repo)

		result, err := svc.List(context.Background(), filter)
		require.NoError(t, err)
		assert.Len(t, result.Stocks, 2)
		assert.EqualValues(t, 41, result.Total)
		assert.EqualValues(t, 3, result.Pages)
	})

	t.Run("повторный запрос идёт из кеша", func(t *testing.T) {
		repo := new(StockRepoMock)
		repo.On("ListStocks", mock.Anything, filter).
			Return(stocks, int64(2), nil).Once()
		svc, _ := newService(repo)

		_, err := svc.List(context.Background(), filter)
		require.NoError(t, err)
		result, err := svc.List(context.Background(), filter)
		require.NoError(t, err)
		assert.Len(t, result.Stocks, 2)
		repo.AssertNumberOfCalls(t, "ListStocks", 1)
	})

	t.Run("пустая выборка отдаёт пустой слайс", func(t *testing.T) {
		repo := new(StockRepoMock)
		repo.On("ListStocks", mock.Anything, mock.Anything).
			Return([]*models.Stock(nil), int64(0), nil).Once()
		svc, _ := newService(repo)

		result, err := svc.List(context.Background(), models.StockFilter{Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.NotNil(t, result.Stocks)
		assert.Empty(t, result.Stocks)
	})
}

func TestService_Detail(t *testing.T) {
	t.Run("несуществующий тикер", func(t *testing.T) {
		repo := new(StockRepoMock)
		repo.On("GetStockByTicker", mock.Anything, "XXXX").
			Return(nil, mongo.ErrNotFound).Once()
		svc, _ := newService(repo)

		_, err := svc.Detail(context.Background(), "XXXX")
		require.ErrorIs(t, err, stock.ErrStockNotFound)
	})

	t.Run("карточка кешируется", func(t *testing.T) {
		repo := new(StockRepoMock)
		repo.On("GetStockByTicker", mock.Anything, "BBCA").
			Return(&models.Stock{Ticker: "BBCA"}, nil).Once()
		svc, _ := newService(repo)

		_, err := svc.Detail(context.Background(), "BBCA")
		require.NoError(t, err)
		got, err := svc.Detail(context.Background(), "BBCA")
		require.NoError(t, err)
		assert.Equal(t, "BBCA", got.Ticker)
		repo.AssertNumberOfCalls(t, "GetStockByTicker", 1)
	})
}

func TestService_ExportCSV(t *testing.T) {
	repo := new(StockRepoMock)
	st := &models.Stock{
		Ticker:      "BBCA",
		CompanyName: "Bank Central Asia",
		Sector:      "Financials",
	}
	st.Analysis.Score = 88.5
	st.Analysis.BusinessQuality = "Sangat Solid"
	st.Technical.LastPrice = 9875
	repo.On("AllStocks", mock.Anything).Return([]*models.Stock{st}, nil).Once()
	svc, _ := newService(repo)

	raw, err := svc.ExportCSV(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ticker,company_name"))
	assert.Contains(t, lines[1], "BBCA")
	assert.Contains(t, lines[1], "88.5")
	assert.Contains(t, lines[1], "9875")
}
