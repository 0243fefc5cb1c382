package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Watchlist — список наблюдения пользователя. На пару (user, name) действует
// уникальный индекс; размер списка ограничивается тарифом на записи.
type Watchlist struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Name      string             `bson:"name" json:"name"`
	Stocks    []WatchlistItem    `bson:"stocks" json:"stocks"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// WatchlistItem — одна бумага в списке наблюдения. Logo и CompanyName не
// хранятся, а подтягиваются из коллекции stocks при чтении.
type WatchlistItem struct {
	Ticker      string       `bson:"ticker" json:"ticker"`
	AddedAt     time.Time    `bson:"added_at" json:"added_at"`
	Notes       string       `bson:"notes,omitempty" json:"notes,omitempty"`
	AlertConfig *AlertConfig `bson:"alert_config,omitempty" json:"alert_config,omitempty"`

	Logo        string `bson:"-" json:"logo,omitempty"`
	CompanyName string `bson:"-" json:"company_name,omitempty"`
}

// AlertConfig — настройка ценового алерта по бумаге. Доступна только
// тарифам с возможностью watchlist_alerts.
type AlertConfig struct {
	PriceAbove *float64 `bson:"price_above,omitempty" json:"price_above,omitempty"`
	PriceBelow *float64 `bson:"price_below,omitempty" json:"price_below,omitempty"`
	Active     bool     `bson:"active" json:"active"`
}

// DefaultWatchlistName — имя списка, создаваемого лениво при первом обращении.
const DefaultWatchlistName = "My Watchlist"
