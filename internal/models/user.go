// Package models содержит доменные структуры платформы: пользователей,
// транзакции оплаты, бумаги, списки наблюдения и справочный контент.
// Структуры используются в бизнес-логике и при работе с хранилищем MongoDB.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flexbit-dev/flexbit-api/internal/entitlement"
)

// User представляет зарегистрированного пользователя системы.
// У пользователя всегда ровно одна встроенная подписка; тариф меняется
// только через движок платежей или правку администратора.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PhoneNumber  string             `bson:"phone_number" json:"phone_number"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	FullName     string             `bson:"full_name" json:"full_name"`
	Role         string             `bson:"role" json:"role"` // user | admin
	Subscription Subscription       `bson:"subscription" json:"subscription"`
	Preferences  Preferences        `bson:"preferences" json:"preferences"`

	ResetPasswordToken   string     `bson:"reset_password_token,omitempty" json:"-"`
	ResetPasswordExpires *time.Time `bson:"reset_password_expires,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Subscription — встроенное в пользователя состояние подписки.
// ExpiryDate == nil означает бессрочную подписку.
type Subscription struct {
	Tier       entitlement.Tier `bson:"tier" json:"tier"`
	Status     string           `bson:"status" json:"status"` // active | expired | canceled
	StartDate  time.Time        `bson:"start_date" json:"start_date"`
	ExpiryDate *time.Time       `bson:"expiry_date" json:"expiry_date"`
	PaymentID  string           `bson:"payment_id,omitempty" json:"payment_id,omitempty"`
}

// Preferences — пользовательские настройки интерфейса.
type Preferences struct {
	Theme         string `bson:"theme" json:"theme"` // dark | light
	Notifications bool   `bson:"notifications" json:"notifications"`
}

// NewFreeSubscription возвращает подписку, выдаваемую при регистрации.
func NewFreeSubscription(now time.Time) Subscription {
	return Subscription{
		Tier:      entitlement.TierFree,
		Status:    entitlement.StatusActive,
		StartDate: now,
	}
}

// EffectiveTier возвращает действующий тариф пользователя на момент now
// с учётом истечения и статуса подписки.
func (u *User) EffectiveTier(now time.Time) entitlement.Tier {
	return entitlement.EffectiveTier(u.Subscription.Tier, u.Subscription.Status,
		u.Subscription.ExpiryDate, now)
}
