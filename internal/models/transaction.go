package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flexbit-dev/flexbit-api/internal/entitlement"
)

// Статусы транзакции оплаты. Pending — единственное нетерминальное состояние;
// challenge означает удержание платежа антифродом шлюза до ручного разбора.
const (
	TxStatusPending   = "pending"
	TxStatusSuccess   = "success"
	TxStatusFailed    = "failed"
	TxStatusChallenge = "challenge"
)

// Transaction представляет одну попытку покупки тарифа и её жизненный цикл.
// OrderID уникален (индекс в MongoDB), записи не удаляются иначе как каскадом
// при удалении пользователя. Меняется только поле Status.
type Transaction struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	OrderID   string             `bson:"order_id" json:"order_id"`
	Tier      entitlement.Tier   `bson:"tier" json:"tier"`
	Amount    int64              `bson:"amount" json:"amount"`
	Status    string             `bson:"status" json:"status"`
	SnapToken string             `bson:"snap_token" json:"snap_token"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
