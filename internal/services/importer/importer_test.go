package importer_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/services/importer"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mysqlsource"
)

type SourceMock struct {
	mock.Mock
}

func (m *SourceMock) FetchAll(ctx context.Context) ([]mysqlsource.Row, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]mysqlsource.Row), args.Error(1)
}

type WriterMock struct {
	mock.Mock
}

func (m *WriterMock) UpsertStock(ctx context.Context, stock models.Stock) error {
	args := m.Called(ctx, stock)
	return args.Error(0)
}

type InvalidatorMock struct {
	mock.Mock
}

func (m *InvalidatorMock) InvalidatePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

func ns(v string) sql.NullString   { return sql.NullString{String: v, Valid: true} }
func nf(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }
func discard() *slog.Logger        { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestTransform(t *testing.T) {
	row := mysqlsource.Row{
		Ticker:               "bbca",
		CompanyName:          ns("Bank Central Asia"),
		Sector:               ns("Financials"),
		IsFinancialSector:    sql.NullInt64{Int64: 1, Valid: true},
		Score:                nf(88),
		BusinessQualityLabel: ns("Sangat Solid"),
		TimingLabel:          ns("Momentum Bagus"),
		TechTrend:            ns("1. Uptrend"),
		TechSignal:           ns("2. Buy on Weakness"),
		HasConflict:          ns("⚠️ Ya"),
		ConflictType:         ns("momentum_vs_value"),
		Price:                nf(9875),
		PriceChangePct:       nf(0.0125),
		DividendYield:        nf(2.5),
	}

	stock := importer.Transform(row)

	assert.Equal(t, "BBCA", stock.Ticker)
	assert.True(t, stock.IsFinancialSector)
	assert.Equal(t, "Uptrend", stock.Analysis.Trend)
	assert.Equal(t, "Buy on Weakness", stock.Technical.Signals.Call)
	assert.True(t, stock.Analysis.Conflict.HasConflict)
	assert.Equal(t, "momentum_vs_value", stock.Analysis.Conflict.Type)
	assert.Equal(t, "Conflict: momentum_vs_value", stock.Analysis.Conflict.Message)
	require.NotNil(t, stock.Technical.PriceChangePercent)
	assert.InDelta(t, 1.25, *stock.Technical.PriceChangePercent, 1e-9)
	require.NotNil(t, stock.Dividend.Yield)
	assert.Equal(t, 2.5, *stock.Dividend.Yield)
}

func TestTransform_EmptyOptionalColumns(t *testing.T) {
	stock := importer.Transform(mysqlsource.Row{Ticker: "TLKM"})

	assert.Equal(t, "TLKM", stock.Ticker)
	assert.False(t, stock.Analysis.Conflict.HasConflict)
	assert.Equal(t, "none", stock.Analysis.Conflict.Type)
	assert.Empty(t, stock.Analysis.Conflict.Message)
	assert.Nil(t, stock.Technical.PriceChangePercent)
	assert.Nil(t, stock.ReportDate)
	assert.Empty(t, stock.Technical.Signals.Call)
}

func TestService_Run(t *testing.T) {
	rows := []mysqlsource.Row{
		{Ticker: "BBCA"},
		{Ticker: "TLKM"},
		{Ticker: "ASII"},
	}

	t.Run("ошибка одной строки не прерывает прогон", func(t *testing.T) {
		source := new(SourceMock)
		writer := new(WriterMock)
		inv := new(InvalidatorMock)
		source.On("FetchAll", mock.Anything).Return(rows, nil).Once()
		writer.On("UpsertStock", mock.Anything, mock.MatchedBy(func(st models.Stock) bool {
			return st.Ticker == "TLKM"
		})).Return(errors.New("write failed")).Once()
		writer.On("UpsertStock", mock.Anything, mock.Anything).Return(nil).Twice()
		inv.On("InvalidatePrefix", mock.Anything, "stocks:").Return(nil).Once()

		svc := importer.New(discard(), source, writer, inv)
		result, err := svc.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, result.Total)
		assert.Equal(t, 2, result.Success)
		assert.Equal(t, 1, result.Errors)
		inv.AssertExpectations(t)
	})

	t.Run("недоступный источник останавливает прогон", func(t *testing.T) {
		source := new(SourceMock)
		source.On("FetchAll", mock.Anything).Return(nil, errors.New("dial tcp")).Once()

		svc := importer.New(discard(), source, new(WriterMock), new(InvalidatorMock))
		_, err := svc.Run(context.Background())
		require.Error(t, err)
	})
}

func TestService_RunDaily_StopsOnCancel(t *testing.T) {
	source := new(SourceMock)
	svc := importer.New(discard(), source, new(WriterMock), new(InvalidatorMock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunDaily(ctx, 19, time.UTC)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
	source.AssertNotCalled(t, "FetchAll", mock.Anything)
}
