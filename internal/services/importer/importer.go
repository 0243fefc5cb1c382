// Package importer переносит результаты ежедневного аналитического
// пайплайна из реляционного источника в документное хранилище.
package importer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mysqlsource"
)

var (
	rowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flexbit_importer_rows_total",
		Help: "Stock rows processed by the daily import, by result.",
	}, []string{"result"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flexbit_importer_run_duration_seconds",
		Help:    "Wall time of a full import run.",
		Buckets: prometheus.DefBuckets,
	})

	lastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flexbit_importer_last_run_timestamp_seconds",
		Help: "Unix time of the last completed import run.",
	})
)

// Маркер конфликта в источнике — литеральная строка с эмодзи.
const conflictMarker = "⚠️ Ya"

// Источник нумерует человекочитаемые метки ("1. Uptrend"), номер
// в документ не переносится.
var numericPrefix = regexp.MustCompile(`^\d+\.\s*`)

// SourceRepository — чтение строк из реляционного источника.
type SourceRepository interface {
	FetchAll(ctx context.Context) ([]mysqlsource.Row, error)
}

// StockWriter — запись бумаг в документное хранилище.
type StockWriter interface {
	UpsertStock(ctx context.Context, stock models.Stock) error
}

// CacheInvalidator сбрасывает кеш рыночных данных после импорта.
type CacheInvalidator interface {
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Result — итог одного прогона импорта.
type Result struct {
	Total    int           `json:"total"`
	Success  int           `json:"success"`
	Errors   int           `json:"errors"`
	Duration time.Duration `json:"duration"`
}

// Service выполняет импорт и его ежедневное расписание.
type Service struct {
	log    *slog.Logger
	source SourceRepository
	stocks StockWriter
	cache  CacheInvalidator
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, source SourceRepository, stocks StockWriter, cache CacheInvalidator) *Service {
	return &Service{log: log, source: source, stocks: stocks, cache: cache}
}

// Run выполняет один прогон: читает все строки источника и обновляет
// документы по тикерам. Ошибка одной строки не прерывает прогон.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	const op = "services.importer.Run"
	started := time.Now()

	rows, err := s.source.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &Result{Total: len(rows)}
	for _, row := range rows {
		stock := Transform(row)
		if err := s.stocks.UpsertStock(ctx, stock); err != nil {
			result.Errors++
			rowsTotal.WithLabelValues("error").Inc()
			s.log.Error("upsert failed", sl.Err(err), slog.String("ticker", row.Ticker))
			continue
		}
		result.Success++
		rowsTotal.WithLabelValues("success").Inc()
	}

	if s.cache != nil {
		if err := s.cache.InvalidatePrefix(ctx, "stocks:"); err != nil {
			s.log.Error("cache invalidation failed", sl.Err(err))
		}
	}

	result.Duration = time.Since(started)
	runDuration.Observe(result.Duration.Seconds())
	lastRunTimestamp.SetToCurrentTime()

	s.log.Info("import run finished",
		slog.Int("total", result.Total),
		slog.Int("success", result.Success),
		slog.Int("errors", result.Errors),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// RunDaily запускает импорт каждый день в hourOfDay по loc и блокируется
// до отмены контекста.
func (s *Service) RunDaily(ctx context.Context, hourOfDay int, loc *time.Location) {
	for {
		next := nextRun(time.Now().In(loc), hourOfDay)
		s.log.Info("next import scheduled", slog.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.Run(ctx); err != nil {
			s.log.Error("scheduled import failed", sl.Err(err))
		}
	}
}

// nextRun возвращает ближайший запуск в hourOfDay после now.
func nextRun(now time.Time, hourOfDay int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hourOfDay, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Transform переводит строку источника в документ бумаги.
func Transform(row mysqlsource.Row) models.Stock {
	stock := models.Stock{
		Ticker:            strings.ToUpper(row.Ticker),
		CompanyName:       row.CompanyName.String,
		Sector:            row.Sector.String,
		Industry:          row.Industry.String,
		Logo:              row.Logo.String,
		IsFinancialSector: row.IsFinancialSector.Int64 == 1,
		ReportDate:        nullTimePtr(row.ReportDate),
	}

	updatedAt := time.Now()
	if row.UpdatedAt.Valid {
		updatedAt = row.UpdatedAt.Time
	}
	stock.UpdatedAt = updatedAt
	stock.Financials = models.Financials{
		DividendYield: nullFloatPtr(row.DividendYield),
		LastUpdated:   updatedAt,
	}

	stock.Analysis = models.Analysis{
		Score:           row.Score.Float64,
		BusinessQuality: row.BusinessQualityLabel.String,
		TimingScore:     row.TimingScore.Float64,
		TimingLabel:     row.TimingLabel.String,
		Trend:           stripPrefix(row.TechTrend),
		Conflict: models.Conflict{
			HasConflict: row.HasConflict.String == conflictMarker,
			Type:        conflictType(row.ConflictType),
			Message:     conflictMessage(row.ConflictType),
		},
		InvestorProfile: row.InvestorMatch.String,
		InvestorAvoid:   row.InvestorAvoid.String,
		VQSG: models.VQSG{
			V: row.VScore.Float64,
			Q: row.QScore.Float64,
			S: row.SScore.Float64,
			G: row.GScore.Float64,
		},
		StockProfile: models.StockProfile{
			Emoji:       row.StockProfileEmoji.String,
			Name:        row.StockProfileName.String,
			Description: row.StockProfileDescription.String,
			Risk:        row.StockProfileRisk.String,
		},
		Diagnosis:         row.Diagnosis.String,
		Category:          row.Category.String,
		Strongest:         row.Strongest.String,
		Weakest:           row.Weakest.String,
		FundamentalSignal: row.FundamentalSignal.String,
		Synthesis: models.Synthesis{
			Profile:     row.SynthesisProfile.String,
			Description: row.SynthesisDescription.String,
			Category:    row.SynthesisCategory.String,
			Alignment:   row.SynthesisAlignment.String,
		},
		DataConfidence: row.DataConfidence.String,
		SafetyNote:     row.SafetyNote.String,
		QualityFlags:   row.QualityFlags.String,
		AnalystNotes:   row.AnalystNotes.String,
	}

	stock.Technical = models.Technical{
		LastPrice:          row.Price.Float64,
		PriceChange:        nullFloatPtr(row.PriceChange),
		PriceChangePercent: pctTimes100(row.PriceChangePct),
		Volume:             row.Volume.Int64,
		VolumeCategory:     row.VolumeCategory.String,
		Week52High:         nullFloatPtr(row.Week52High),
		Week52Low:          nullFloatPtr(row.Week52Low),
		Trend:              stripPrefix(row.TechTrend),
		TrendStrength:      row.TrendStrength.String,
		LastUpdated:        updatedAt,
		Signals: models.Signals{
			Call:       stripPrefix(row.TechSignal),
			EntryPrice: nullFloatPtr(row.TechEntryConservative),
			TP1:        nullFloatPtr(row.TechTP1),
			TP2:        nullFloatPtr(row.TechTP2),
			StopLoss:   nullFloatPtr(row.TechStopLoss),
			RSI:        nullFloatPtr(row.TechRSI),
		},
	}

	stock.Dividend = models.Dividend{
		Yield:  nullFloatPtr(row.DividendYield),
		Payout: nullFloatPtr(row.DividendPayout),
		ExDate: row.DividendExDate.String,
	}
	stock.Analyst = models.Analyst{
		Recommendation: row.AnalystRecommendation.String,
		UpsidePct:      nullFloatPtr(row.AnalystUpsidePct),
		Count:          int(row.AnalystCount.Int64),
	}
	return stock
}

func stripPrefix(v sql.NullString) string {
	return numericPrefix.ReplaceAllString(v.String, "")
}

func conflictType(v sql.NullString) string {
	if v.String == "" {
		return "none"
	}
	return v.String
}

func conflictMessage(v sql.NullString) string {
	if v.String == "" {
		return ""
	}
	return "Conflict: " + v.String
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// Источник хранит изменение цены долей единицы, клиенту отдаются проценты.
func pctTimes100(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64 * 100
	return &f
}
