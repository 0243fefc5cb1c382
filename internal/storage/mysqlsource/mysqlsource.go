// Package mysqlsource читает строки ежедневного фундаментального
// обновления из реляционного источника данных. Источник доступен
// только на чтение, схемой владеет пайплайн аналитики.
package mysqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Source — подключение к реляционному источнику бумаг.
type Source struct {
	db *sql.DB
}

// Row — строка таблицы daily_fundamentals_update. Необязательные
// колонки представлены nullable-типами, преобразование в документ
// выполняет импортёр.
type Row struct {
	Ticker                  string
	CompanyName             sql.NullString
	Sector                  sql.NullString
	Industry                sql.NullString
	Logo                    sql.NullString
	IsFinancialSector       sql.NullInt64
	Score                   sql.NullFloat64
	BusinessQualityLabel    sql.NullString
	TimingScore             sql.NullFloat64
	TimingLabel             sql.NullString
	TechTrend               sql.NullString
	HasConflict             sql.NullString
	ConflictType            sql.NullString
	InvestorMatch           sql.NullString
	InvestorAvoid           sql.NullString
	VScore                  sql.NullFloat64
	QScore                  sql.NullFloat64
	SScore                  sql.NullFloat64
	GScore                  sql.NullFloat64
	StockProfileEmoji       sql.NullString
	StockProfileName        sql.NullString
	StockProfileDescription sql.NullString
	StockProfileRisk        sql.NullString
	Diagnosis               sql.NullString
	Category                sql.NullString
	Strongest               sql.NullString
	Weakest                 sql.NullString
	FundamentalSignal       sql.NullString
	SynthesisProfile        sql.NullString
	SynthesisDescription    sql.NullString
	SynthesisCategory       sql.NullString
	SynthesisAlignment      sql.NullString
	DataConfidence          sql.NullString
	SafetyNote              sql.NullString
	QualityFlags            sql.NullString
	AnalystNotes            sql.NullString
	Price                   sql.NullFloat64
	PriceChange             sql.NullFloat64
	PriceChangePct          sql.NullFloat64
	Volume                  sql.NullInt64
	VolumeCategory          sql.NullString
	Week52High              sql.NullFloat64
	Week52Low               sql.NullFloat64
	TrendStrength           sql.NullString
	TechSignal              sql.NullString
	TechEntryConservative   sql.NullFloat64
	TechTP1                 sql.NullFloat64
	TechTP2                 sql.NullFloat64
	TechStopLoss            sql.NullFloat64
	TechRSI                 sql.NullFloat64
	DividendYield           sql.NullFloat64
	DividendPayout          sql.NullFloat64
	DividendExDate          sql.NullString
	AnalystRecommendation   sql.NullString
	AnalystUpsidePct        sql.NullFloat64
	AnalystCount            sql.NullInt64
	ReportDate              sql.NullTime
	UpdatedAt               sql.NullTime
}

// New открывает подключение к источнику и проверяет его доступность.
func New(ctx context.Context, dsn string) (*Source, error) {
	const op = "mysqlsource.New"

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Source{db: db}, nil
}

// Close закрывает подключение к источнику.
func (s *Source) Close() error {
	return s.db.Close()
}

// FetchAll возвращает все строки ежедневного обновления.
func (s *Source) FetchAll(ctx context.Context) ([]Row, error) {
	const op = "mysqlsource.FetchAll"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.db.QueryContext(ctx, `SELECT
		ticker, company_name, sector, industry, logo, is_financial_sector,
		flexbit_score, business_quality_label, timing_score, timing_label,
		tech_trend, has_conflict, conflict_type, investor_match, investor_avoid,
		v_score, q_score, s_score, g_score,
		stock_profile_emoji, stock_profile_name, stock_profile_description, stock_profile_risk,
		flexbit_diagnosis, flexbit_category, flexbit_strongest, flexbit_weakest,
		flexbit_fundamental_signal,
		synthesis_profile, synthesis_description, synthesis_category, synthesis_alignment,
		data_confidence, safety_note, quality_flags, analyst_notes,
		price, price_change, price_change_pct, volume, volume_category,
		week_52_high, week_52_low, trend_strength,
		tech_signal, tech_entry_conservative, tech_tp1, tech_tp2, tech_stop_loss, tech_rsi,
		dividend_yield, dividend_payout, dividend_ex_date,
		analyst_recommendation, analyst_upside_pct, analyst_count,
		report_date, updated_at
	FROM daily_fundamentals_update`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var r Row
		err := rows.Scan(
			&r.Ticker, &r.CompanyName, &r.Sector, &r.Industry, &r.Logo, &r.IsFinancialSector,
			&r.Score, &r.BusinessQualityLabel, &r.TimingScore, &r.TimingLabel,
			&r.TechTrend, &r.HasConflict, &r.ConflictType, &r.InvestorMatch, &r.InvestorAvoid,
			&r.VScore, &r.QScore, &r.SScore, &r.GScore,
			&r.StockProfileEmoji, &r.StockProfileName, &r.StockProfileDescription, &r.StockProfileRisk,
			&r.Diagnosis, &r.Category, &r.Strongest, &r.Weakest,
			&r.FundamentalSignal,
			&r.SynthesisProfile, &r.SynthesisDescription, &r.SynthesisCategory, &r.SynthesisAlignment,
			&r.DataConfidence, &r.SafetyNote, &r.QualityFlags, &r.AnalystNotes,
			&r.Price, &r.PriceChange, &r.PriceChangePct, &r.Volume, &r.VolumeCategory,
			&r.Week52High, &r.Week52Low, &r.TrendStrength,
			&r.TechSignal, &r.TechEntryConservative, &r.TechTP1, &r.TechTP2, &r.TechStopLoss, &r.TechRSI,
			&r.DividendYield, &r.DividendPayout, &r.DividendExDate,
			&r.AnalystRecommendation, &r.AnalystUpsidePct, &r.AnalystCount,
			&r.ReportDate, &r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
