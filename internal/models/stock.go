package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stock представляет бумагу с результатами анализа. Документ обновляется
// целиком при ежедневном импорте из реляционного источника, ключ — тикер.
type Stock struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Ticker            string             `bson:"ticker" json:"ticker"`
	CompanyName       string             `bson:"company_name" json:"company_name"`
	Sector            string             `bson:"sector" json:"sector"`
	Industry          string             `bson:"industry,omitempty" json:"industry,omitempty"`
	Logo              string             `bson:"logo,omitempty" json:"logo,omitempty"`
	IsFinancialSector bool               `bson:"is_financial_sector" json:"is_financial_sector"`
	Financials        Financials         `bson:"financials" json:"financials"`
	Analysis          Analysis           `bson:"analysis" json:"analysis"`
	Technical         Technical          `bson:"technical" json:"technical"`
	Dividend          Dividend           `bson:"dividend" json:"dividend"`
	Analyst           Analyst            `bson:"analyst" json:"analyst"`
	ReportDate        *time.Time         `bson:"report_date,omitempty" json:"report_date,omitempty"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

// Financials — фундаментальные показатели бумаги.
type Financials struct {
	PER           *float64  `bson:"per,omitempty" json:"per,omitempty"`
	PBV           *float64  `bson:"pbv,omitempty" json:"pbv,omitempty"`
	ROE           *float64  `bson:"roe,omitempty" json:"roe,omitempty"`
	DER           *float64  `bson:"der,omitempty" json:"der,omitempty"`
	DividendYield *float64  `bson:"dividend_yield,omitempty" json:"dividend_yield,omitempty"`
	LastUpdated   time.Time `bson:"last_updated" json:"last_updated"`
}

// Analysis — результат скоринговой модели по бумаге.
type Analysis struct {
	Score             float64      `bson:"score" json:"score"`
	BusinessQuality   string       `bson:"business_quality" json:"business_quality"`
	TimingScore       float64      `bson:"timing_score" json:"timing_score"`
	TimingLabel       string       `bson:"timing_label" json:"timing_label"`
	Trend             string       `bson:"trend,omitempty" json:"trend,omitempty"`
	Conflict          Conflict     `bson:"conflict" json:"conflict"`
	InvestorProfile   string       `bson:"investor_profile,omitempty" json:"investor_profile,omitempty"`
	InvestorAvoid     string       `bson:"investor_avoid,omitempty" json:"investor_avoid,omitempty"`
	VQSG              VQSG         `bson:"vqsg" json:"vqsg"`
	StockProfile      StockProfile `bson:"stock_profile" json:"stock_profile"`
	Diagnosis         string       `bson:"diagnosis,omitempty" json:"diagnosis,omitempty"`
	Category          string       `bson:"category,omitempty" json:"category,omitempty"`
	Strongest         string       `bson:"strongest,omitempty" json:"strongest,omitempty"`
	Weakest           string       `bson:"weakest,omitempty" json:"weakest,omitempty"`
	FundamentalSignal string       `bson:"fundamental_signal,omitempty" json:"fundamental_signal,omitempty"`
	Synthesis         Synthesis    `bson:"synthesis" json:"synthesis"`
	DataConfidence    string       `bson:"data_confidence,omitempty" json:"data_confidence,omitempty"`
	SafetyNote        string       `bson:"safety_note,omitempty" json:"safety_note,omitempty"`
	QualityFlags      string       `bson:"quality_flags,omitempty" json:"quality_flags,omitempty"`
	AnalystNotes      string       `bson:"analyst_notes,omitempty" json:"analyst_notes,omitempty"`
}

// Conflict — расхождение фундаментального и технического сигналов.
type Conflict struct {
	HasConflict bool   `bson:"has_conflict" json:"has_conflict"`
	Type        string `bson:"type" json:"type"`
	Message     string `bson:"message,omitempty" json:"message,omitempty"`
}

// VQSG — компоненты скоринга: value, quality, safety, growth.
type VQSG struct {
	V float64 `bson:"v" json:"v"`
	Q float64 `bson:"q" json:"q"`
	S float64 `bson:"s" json:"s"`
	G float64 `bson:"g" json:"g"`
}

// StockProfile — человекочитаемый профиль бумаги.
type StockProfile struct {
	Emoji       string `bson:"emoji,omitempty" json:"emoji,omitempty"`
	Name        string `bson:"name,omitempty" json:"name,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Risk        string `bson:"risk,omitempty" json:"risk,omitempty"`
}

// Synthesis — итоговое сопоставление профиля инвестора и бумаги.
type Synthesis struct {
	Profile     string `bson:"profile,omitempty" json:"profile,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Category    string `bson:"category,omitempty" json:"category,omitempty"`
	Alignment   string `bson:"alignment,omitempty" json:"alignment,omitempty"`
}

// Technical — рыночные данные и торговые сигналы.
type Technical struct {
	LastPrice          float64   `bson:"last_price" json:"last_price"`
	PriceChange        *float64  `bson:"price_change,omitempty" json:"price_change,omitempty"`
	PriceChangePercent *float64  `bson:"price_change_percent,omitempty" json:"price_change_percent,omitempty"`
	Volume             int64     `bson:"volume,omitempty" json:"volume,omitempty"`
	VolumeCategory     string    `bson:"volume_category,omitempty" json:"volume_category,omitempty"`
	Week52High         *float64  `bson:"week_52_high,omitempty" json:"week_52_high,omitempty"`
	Week52Low          *float64  `bson:"week_52_low,omitempty" json:"week_52_low,omitempty"`
	Trend              string    `bson:"trend,omitempty" json:"trend,omitempty"`
	TrendStrength      string    `bson:"trend_strength,omitempty" json:"trend_strength,omitempty"`
	LastUpdated        time.Time `bson:"last_updated" json:"last_updated"`
	Signals            Signals   `bson:"signals" json:"signals"`
}

// Signals — торговый сигнал с уровнями входа и выхода.
type Signals struct {
	Call       string   `bson:"call,omitempty" json:"call,omitempty"`
	EntryPrice *float64 `bson:"entry_price,omitempty" json:"entry_price,omitempty"`
	TP1        *float64 `bson:"tp1,omitempty" json:"tp1,omitempty"`
	TP2        *float64 `bson:"tp2,omitempty" json:"tp2,omitempty"`
	StopLoss   *float64 `bson:"stop_loss,omitempty" json:"stop_loss,omitempty"`
	RSI        *float64 `bson:"rsi,omitempty" json:"rsi,omitempty"`
}

// Dividend — дивидендные показатели.
type Dividend struct {
	Yield  *float64 `bson:"yield,omitempty" json:"yield,omitempty"`
	Payout *float64 `bson:"payout,omitempty" json:"payout,omitempty"`
	ExDate string   `bson:"ex_date,omitempty" json:"ex_date,omitempty"`
}

// Analyst — консенсус внешних аналитиков.
type Analyst struct {
	Recommendation string   `bson:"recommendation,omitempty" json:"recommendation,omitempty"`
	UpsidePct      *float64 `bson:"upside_pct,omitempty" json:"upside_pct,omitempty"`
	Count          int      `bson:"count,omitempty" json:"count,omitempty"`
}
