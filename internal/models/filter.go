package models

// StockFilter — параметры списка бумаг: поиск, фильтры, сортировка, пагинация.
type StockFilter struct {
	Keyword  string
	Quality  string
	Timing   string
	Conflict *bool
	Sort     string // score | ticker | price_asc | price_desc
	Page     int
	Limit    int
}

// ScreenerFilter — параметры скринера по измерениям скоринга.
type ScreenerFilter struct {
	Quality  string
	Timing   string
	MinScore *float64
	MaxScore *float64
}

// StockStats — агрегированная статистика по рынку для дашборда.
type StockStats struct {
	Total    int64         `json:"total"`
	Quality  QualityStats  `json:"quality"`
	Timing   TimingStats   `json:"timing"`
	Conflict ConflictStats `json:"conflict"`
}

// QualityStats — распределение бумаг по качеству бизнеса.
type QualityStats struct {
	Solid     int64 `json:"solid"`
	Fair      int64 `json:"fair"`
	Attention int64 `json:"attention"`
	Troubled  int64 `json:"troubled"`
}

// TimingStats — распределение бумаг по таймингу входа.
type TimingStats struct {
	Momentum      int64 `json:"momentum"`
	Accumulation  int64 `json:"accumulation"`
	Stabilization int64 `json:"stabilization"`
	Avoid         int64 `json:"avoid"`
}

// ConflictStats — сколько бумаг имеют расхождение сигналов.
type ConflictStats struct {
	HasConflict int64 `json:"has_conflict"`
	Aligned     int64 `json:"aligned"`
}
