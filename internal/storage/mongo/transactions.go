package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flexbit-dev/flexbit-api/internal/models"
)

// CreateTransaction вставляет новую транзакцию оплаты. Дубликат order_id
// ломается об уникальный индекс — это и есть защита от коллизии
// идентификаторов заказов.
func (s *Storage) CreateTransaction(ctx context.Context, tx models.Transaction) (primitive.ObjectID, error) {
	const op = "storage.CreateTransaction"
	select {
	case <-ctx.Done():
		return primitive.NilObjectID, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	res, err := s.db.Collection(collTransactions).InsertOne(ctx, tx)
	if err != nil {
		return primitive.NilObjectID, wrapMongoErr(op, err)
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// FailPendingTransactions переводит все pending-транзакции пользователя в
// failed. Вызывается перед созданием нового заказа: в каждый момент времени
// у пользователя не больше одной pending-транзакции. Возвращает число
// инвалидированных записей.
func (s *Storage) FailPendingTransactions(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	const op = "storage.FailPendingTransactions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.db.Collection(collTransactions).UpdateMany(ctx,
		bson.M{"user": userID, "status": models.TxStatusPending},
		bson.M{"$set": bson.M{"status": models.TxStatusFailed, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.ModifiedCount, nil
}

// GetTransactionByOrderID возвращает транзакцию по идентификатору заказа.
func (s *Storage) GetTransactionByOrderID(ctx context.Context, orderID string) (*models.Transaction, error) {
	const op = "storage.GetTransactionByOrderID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var tx models.Transaction
	err := s.db.Collection(collTransactions).FindOne(ctx, bson.M{"order_id": orderID}).Decode(&tx)
	if err != nil {
		return nil, wrapMongoErr(op, err)
	}
	return &tx, nil
}

// SetTransactionStatus устанавливает статус транзакции по order_id.
func (s *Storage) SetTransactionStatus(ctx context.Context, orderID, status string) error {
	const op = "storage.SetTransactionStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.db.Collection(collTransactions).UpdateOne(ctx,
		bson.M{"order_id": orderID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// MarkTransactionSuccess атомарно переводит транзакцию в success,
// если она ещё не success. Возвращает true, если переход состоялся
// именно этим вызовом: на этом строится идемпотентность реконсилиации —
// повторная доставка вебхука не приводит к повторному продлению подписки.
func (s *Storage) MarkTransactionSuccess(ctx context.Context, orderID string) (bool, error) {
	const op = "storage.MarkTransactionSuccess"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.db.Collection(collTransactions).UpdateOne(ctx,
		bson.M{"order_id": orderID, "status": bson.M{"$ne": models.TxStatusSuccess}},
		bson.M{"$set": bson.M{"status": models.TxStatusSuccess, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return res.ModifiedCount > 0, nil
}

// ListTransactionsByUser возвращает транзакции пользователя, новые первыми.
func (s *Storage) ListTransactionsByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Transaction, error) {
	const op = "storage.ListTransactionsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	cur, err := s.db.Collection(collTransactions).Find(ctx,
		bson.M{"user": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var result []*models.Transaction
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteTransactionsByUser удаляет транзакции пользователя
// (каскад при удалении аккаунта).
func (s *Storage) DeleteTransactionsByUser(ctx context.Context, userID primitive.ObjectID) error {
	const op = "storage.DeleteTransactionsByUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.db.Collection(collTransactions).DeleteMany(ctx, bson.M{"user": userID})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
