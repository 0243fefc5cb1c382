// Package entitlement содержит статический каталог тарифов и чистые функции
// для проверки прав доступа. Никакого ввода-вывода: пакет безопасно вызывать
// на каждом запросе.
//
// Набор возможностей тарифов монотонный: всё, что доступно pioneer, остаётся
// доступным growth и pro. Неизвестный или повреждённый тариф всегда приводится
// к самым жёстким ограничениям (поведение free).
package entitlement

import "time"

// Tier представляет уровень подписки пользователя.
type Tier string

// Возможные уровни подписки.
const (
	TierFree         Tier = "free"
	TierPioneer      Tier = "pioneer"
	TierEarlyAdopter Tier = "early_adopter"
	TierGrowth       Tier = "growth"
	TierPro          Tier = "pro"
)

// Feature представляет функциональность, доступ к которой ограничен тарифом.
type Feature string

// Возможности платформы, закрытые тарифами.
const (
	FeatureCoreAnalysis    Feature = "core_analysis" // Narrative, VQSG, Screener
	FeatureCommunityAccess Feature = "community_access"
	FeatureWatchlistAlerts Feature = "watchlist_alerts"
	FeatureExportData      Feature = "export_data"
	FeaturePrioritySupport Feature = "priority_support"
	FeatureTimingLabels    Feature = "timing_labels"
)

// Statuses подписки.
const (
	StatusActive   = "active"
	StatusExpired  = "expired"
	StatusCanceled = "canceled"
)

// permissions — таблица тариф → набор возможностей.
var permissions = map[Tier][]Feature{
	TierFree: {},
	TierPioneer: {
		FeatureCoreAnalysis,
		FeatureCommunityAccess,
		FeatureTimingLabels,
	},
	TierEarlyAdopter: {
		FeatureCoreAnalysis,
		FeatureCommunityAccess,
		FeatureTimingLabels,
		FeaturePrioritySupport,
	},
	TierGrowth: {
		FeatureCoreAnalysis,
		FeatureCommunityAccess,
		FeatureTimingLabels,
		FeatureWatchlistAlerts,
		FeatureExportData,
		FeaturePrioritySupport,
	},
	TierPro: {
		FeatureCoreAnalysis,
		FeatureCommunityAccess,
		FeatureTimingLabels,
		FeatureWatchlistAlerts,
		FeatureExportData,
		FeaturePrioritySupport,
	},
}

// prices — таблица тариф → цена в IDR. Free не продаётся.
var prices = map[Tier]int64{
	TierFree:         0,
	TierPioneer:      5000,
	TierEarlyAdopter: 599000,
	TierGrowth:       999000,
	TierPro:          1999000,
}

// Limits описывает числовые ограничения тарифа.
type Limits struct {
	MaxWatchlistSize int
	CanExport        bool
	SupportLevel     string
}

// limits — таблица тариф → ограничения. Запись fallback совпадает с free:
// нераспознанное значение тарифа деградирует до самых жёстких лимитов.
var limits = map[Tier]Limits{
	TierPioneer:      {MaxWatchlistSize: 20, CanExport: false, SupportLevel: "community"},
	TierEarlyAdopter: {MaxWatchlistSize: 20, CanExport: false, SupportLevel: "community"},
	TierGrowth:       {MaxWatchlistSize: 50, CanExport: true, SupportLevel: "priority"},
	TierPro:          {MaxWatchlistSize: 9999, CanExport: true, SupportLevel: "priority_vip"},
}

// fallbackLimits — ограничения для free и любого неизвестного тарифа.
var fallbackLimits = Limits{MaxWatchlistSize: 5, CanExport: false, SupportLevel: "none"}

// HasPermission проверяет, доступна ли возможность на данном тарифе.
// Неизвестный тариф трактуется как пустой набор возможностей.
func HasPermission(tier Tier, feature Feature) bool {
	for _, f := range permissions[tier] {
		if f == feature {
			return true
		}
	}
	return false
}

// LimitsFor возвращает ограничения тарифа. Функция тотальна: для
// нераспознанного значения возвращается fallback с самыми жёсткими лимитами.
func LimitsFor(tier Tier) Limits {
	if l, ok := limits[tier]; ok {
		return l
	}
	return fallbackLimits
}

// Price возвращает цену тарифа и признак того, что тариф известен каталогу.
func Price(tier Tier) (int64, bool) {
	p, ok := prices[tier]
	return p, ok
}

// TierByAmount выполняет обратный поиск тарифа по сумме платежа.
// Сравнение строгое, без допусков на округление. Нулевая сумма (free)
// тарифом покупки не считается.
func TierByAmount(amount int64) (Tier, bool) {
	for _, t := range []Tier{TierPioneer, TierEarlyAdopter, TierGrowth, TierPro} {
		if prices[t] == amount {
			return t, true
		}
	}
	return "", false
}

// Purchasable сообщает, можно ли купить тариф. Free оформляется только
// при регистрации.
func Purchasable(tier Tier) bool {
	_, known := prices[tier]
	return known && tier != TierFree
}

// Lifetime сообщает, является ли тариф пожизненным (без даты истечения).
// Платные годовые тарифы — growth и pro.
func Lifetime(tier Tier) bool {
	return tier == TierPioneer || tier == TierEarlyAdopter
}

// EffectiveTier приводит сохранённую подписку к действующему тарифу на момент
// now. Подписка с истекшей датой или неактивным статусом читается как free,
// фоновой очистки статусов в системе нет: это единственное место, где
// истечение принимается во внимание.
func EffectiveTier(tier Tier, status string, expiryDate *time.Time, now time.Time) Tier {
	if status != StatusActive {
		return TierFree
	}
	if expiryDate != nil && expiryDate.Before(now) {
		return TierFree
	}
	if _, known := prices[tier]; !known {
		return TierFree
	}
	return tier
}
