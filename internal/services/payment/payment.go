// Package payment содержит бизнес-логику оплаты тарифов: создание
// заказов, реконсилиацию уведомлений шлюза и выдачу подписок.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flexbit-dev/flexbit-api/internal/entitlement"
	"github.com/flexbit-dev/flexbit-api/internal/lib/orderid"
	"github.com/flexbit-dev/flexbit-api/internal/lib/rabbitmq"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/paymentgateway"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mongo"
)

// Ошибки бизнес-уровня. Обработчик вебхука сопоставляет их статусам
// ответа шлюзу, остальные обработчики — ответам клиенту.
var (
	ErrInvalidTier      = errors.New("tier is not purchasable")
	ErrInvalidSignature = errors.New("invalid notification signature")
	ErrBadOrderID       = errors.New("malformed order id")
	ErrOrderNotFound    = errors.New("order not found")
	ErrNotOrderOwner    = errors.New("order belongs to another user")
	ErrGateway          = errors.New("payment gateway request failed")
)

// TransactionRepository описывает контракт хранения транзакций.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, tx models.Transaction) (primitive.ObjectID, error)
	FailPendingTransactions(ctx context.Context, userID primitive.ObjectID) (int64, error)
	GetTransactionByOrderID(ctx context.Context, orderID string) (*models.Transaction, error)
	SetTransactionStatus(ctx context.Context, orderID, status string) error
	MarkTransactionSuccess(ctx context.Context, orderID string) (bool, error)
	ListTransactionsByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Transaction, error)
}

// UserRepository — доступ к пользователям для выдачи подписки.
type UserRepository interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	SetSubscription(ctx context.Context, id primitive.ObjectID, sub models.Subscription) error
}

// Gateway — клиент платёжного шлюза.
type Gateway interface {
	CreateSnapTransaction(ctx context.Context, params paymentgateway.SnapRequest) (*paymentgateway.SnapResponse, error)
	GetTransactionStatus(ctx context.Context, orderID string) (*paymentgateway.TransactionStatus, error)
}

// ReceiptNotifier публикует событие для письма-квитанции.
type ReceiptNotifier interface {
	PublishReceipt(msg rabbitmq.ReceiptMessage) error
}

// Notification — тело уведомления шлюза. Полям статуса из тела сервис
// не доверяет: после проверки подписи статус перечитывается у шлюза.
type Notification struct {
	OrderID      string `json:"order_id"`
	StatusCode   string `json:"status_code"`
	GrossAmount  string `json:"gross_amount"`
	SignatureKey string `json:"signature_key"`
}

// CheckoutSession — созданный заказ вместе с токеном оплаты.
type CheckoutSession struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Service реализует жизненный цикл оплаты подписки.
type Service struct {
	log          *slog.Logger
	transactions TransactionRepository
	users        UserRepository
	gateway      Gateway
	notifier     ReceiptNotifier
	serverKey    string
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, transactions TransactionRepository, users UserRepository,
	gateway Gateway, notifier ReceiptNotifier, serverKey string) *Service {
	return &Service{
		log:          log,
		transactions: transactions,
		users:        users,
		gateway:      gateway,
		notifier:     notifier,
		serverKey:    serverKey,
	}
}

// CreateOrder создает checkout-сессию для покупки тарифа. Все прежние
// незавершённые заказы пользователя переводятся в failed, активным
// остаётся не более одного pending-заказа.
func (s *Service) CreateOrder(ctx context.Context, userID primitive.ObjectID, tier entitlement.Tier) (*CheckoutSession, error) {
	const op = "services.payment.CreateOrder"

	price, ok := entitlement.Price(tier)
	if !ok || !entitlement.Purchasable(tier) {
		return nil, ErrInvalidTier
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	oid := orderid.Build(userID.Hex(), time.Now())
	snap, err := s.gateway.CreateSnapTransaction(ctx, paymentgateway.SnapRequest{
		TransactionDetails: paymentgateway.TransactionDetails{
			OrderID:     oid,
			GrossAmount: price,
		},
		CustomerDetails: paymentgateway.CustomerDetails{
			FirstName: user.FullName,
			Email:     user.Email,
			Phone:     user.PhoneNumber,
		},
		ItemDetails: []paymentgateway.ItemDetail{{
			ID:       string(tier),
			Price:    price,
			Quantity: 1,
			Name:     fmt.Sprintf("FlexBit %s subscription", tier),
		}},
	})
	if err != nil {
		s.log.Error("snap transaction failed", sl.Err(err), slog.String("order_id", oid))
		return nil, fmt.Errorf("%s: %w", op, ErrGateway)
	}

	// Прежние незавершённые заказы гасим только после того, как шлюз
	// открыл новую сессию: отказ шлюза не должен убивать действующий
	// pending-заказ пользователя.
	failed, err := s.transactions.FailPendingTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if failed > 0 {
		s.log.Info("superseded pending orders",
			slog.Int64("count", failed), slog.String("user_id", userID.Hex()))
	}

	_, err = s.transactions.CreateTransaction(ctx, models.Transaction{
		UserID:    userID,
		OrderID:   oid,
		Tier:      tier,
		Amount:    price,
		Status:    models.TxStatusPending,
		SnapToken: snap.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &CheckoutSession{
		OrderID:     oid,
		Token:       snap.Token,
		RedirectURL: snap.RedirectURL,
	}, nil
}

// HandleNotification обрабатывает вебхук шлюза. Подпись проверяется по
// телу уведомления, но статус для принятия решения всегда перечитывается
// у шлюза напрямую. Повторная доставка уведомления об успехе не меняет
// подписку второй раз.
func (s *Service) HandleNotification(ctx context.Context, n Notification) error {
	const op = "services.payment.HandleNotification"

	if !paymentgateway.VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, s.serverKey, n.SignatureKey) {
		return ErrInvalidSignature
	}

	if _, _, err := orderid.Parse(n.OrderID); err != nil {
		return ErrBadOrderID
	}

	status, err := s.gateway.GetTransactionStatus(ctx, n.OrderID)
	if err != nil {
		s.log.Error("status reconciliation failed", sl.Err(err), slog.String("order_id", n.OrderID))
		return fmt.Errorf("%s: %w", op, ErrGateway)
	}

	return s.applyGatewayStatus(ctx, status)
}

// VerifyOrder вручную сверяет заказ со шлюзом и применяет его статус.
// Доступно владельцу заказа; используется вне боевого окружения, где
// вебхук недоставим.
func (s *Service) VerifyOrder(ctx context.Context, userID primitive.ObjectID, oid string) (*models.Transaction, error) {
	const op = "services.payment.VerifyOrder"

	tx, err := s.transactions.GetTransactionByOrderID(ctx, oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if tx.UserID != userID {
		return nil, ErrNotOrderOwner
	}

	status, err := s.gateway.GetTransactionStatus(ctx, oid)
	if err != nil {
		s.log.Error("manual verification failed", sl.Err(err), slog.String("order_id", oid))
		return nil, fmt.Errorf("%s: %w", op, ErrGateway)
	}

	if err := s.applyGatewayStatus(ctx, status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tx, err = s.transactions.GetTransactionByOrderID(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tx, nil
}

// History возвращает транзакции пользователя, свежие первыми.
func (s *Service) History(ctx context.Context, userID primitive.ObjectID) ([]*models.Transaction, error) {
	const op = "services.payment.History"

	list, err := s.transactions.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// applyGatewayStatus — общая таблица решений для вебхука и ручной
// проверки. Неизвестные статусы (pending и прочие) не меняют ничего.
func (s *Service) applyGatewayStatus(ctx context.Context, status *paymentgateway.TransactionStatus) error {
	const op = "services.payment.applyGatewayStatus"

	switch status.TransactionStatus {
	case paymentgateway.StatusCapture:
		switch status.FraudStatus {
		case paymentgateway.FraudAccept:
			return s.applySuccess(ctx, status)
		case paymentgateway.FraudChallenge:
			if err := s.transactions.SetTransactionStatus(ctx, status.OrderID, models.TxStatusChallenge); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			s.log.Warn("payment held by fraud review", slog.String("order_id", status.OrderID))
			return nil
		}
		return nil
	case paymentgateway.StatusSettlement:
		return s.applySuccess(ctx, status)
	case paymentgateway.StatusCancel, paymentgateway.StatusDeny, paymentgateway.StatusExpire:
		if err := s.transactions.SetTransactionStatus(ctx, status.OrderID, models.TxStatusFailed); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	default:
		s.log.Info("notification without terminal status",
			slog.String("order_id", status.OrderID),
			slog.String("status", status.TransactionStatus))
		return nil
	}
}

// applySuccess переводит транзакцию в success и выдаёт подписку.
// Переход идемпотентен: если транзакция уже success, подписка и
// квитанция не трогаются.
func (s *Service) applySuccess(ctx context.Context, status *paymentgateway.TransactionStatus) error {
	const op = "services.payment.applySuccess"

	applied, err := s.transactions.MarkTransactionSuccess(ctx, status.OrderID)
	if err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if !applied {
		s.log.Info("duplicate success notification ignored", slog.String("order_id", status.OrderID))
		return nil
	}

	tx, err := s.transactions.GetTransactionByOrderID(ctx, status.OrderID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	amount, ok := amountFromGross(status.GrossAmount)
	var tier entitlement.Tier
	if ok {
		tier, ok = entitlement.TierByAmount(amount)
	}
	if !ok {
		// Сумма не совпадает ни с одним тарифом: деньги приняты,
		// подписку выдавать нечем. Оставляем на ручной разбор.
		s.log.Error("paid amount does not match any tier",
			slog.String("order_id", status.OrderID),
			slog.String("gross_amount", status.GrossAmount))
		return nil
	}

	sub := models.Subscription{
		Tier:      tier,
		Status:    entitlement.StatusActive,
		StartDate: time.Now(),
		PaymentID: status.OrderID,
	}
	if !entitlement.Lifetime(tier) {
		expiry := time.Now().AddDate(1, 0, 0)
		sub.ExpiryDate = &expiry
	}
	if err := s.users.SetSubscription(ctx, tx.UserID, sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.GetUserByID(ctx, tx.UserID)
	if err != nil {
		s.log.Error("receipt lookup failed", sl.Err(err), slog.String("order_id", status.OrderID))
		return nil
	}
	msg := rabbitmq.ReceiptMessage{
		Email:    user.Email,
		FullName: user.FullName,
		OrderID:  status.OrderID,
		Tier:     string(tier),
		Amount:   tx.Amount,
	}
	if err := s.notifier.PublishReceipt(msg); err != nil {
		// Подписка уже выдана, письмо не критично.
		s.log.Error("failed to publish receipt", sl.Err(err), slog.String("order_id", status.OrderID))
	}
	return nil
}

// amountFromGross разбирает сумму из ответа шлюза ("999000.00").
// Каталог сравнивается строго: нечитаемая строка или сумма с ненулевой
// дробной частью не сопоставляется ни с одним тарифом.
func amountFromGross(gross string) (int64, bool) {
	f, err := strconv.ParseFloat(gross, 64)
	if err != nil {
		return 0, false
	}
	if f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
