package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flexbit-dev/flexbit-api/internal/models"
)

// GetWatchlistByUser возвращает список наблюдения пользователя по имени.
func (s *Storage) GetWatchlistByUser(ctx context.Context, userID primitive.ObjectID, name string) (*models.Watchlist, error) {
	const op = "storage.GetWatchlistByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var wl models.Watchlist
	err := s.db.Collection(collWatchlists).FindOne(ctx,
		bson.M{"user": userID, "name": name}).Decode(&wl)
	if err != nil {
		return nil, wrapMongoErr(op, err)
	}
	return &wl, nil
}

// CreateWatchlist создаёт список наблюдения. Пара (user, name) уникальна.
func (s *Storage) CreateWatchlist(ctx context.Context, wl *models.Watchlist) error {
	const op = "storage.CreateWatchlist"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	now := time.Now()
	wl.ID = primitive.NewObjectID()
	wl.CreatedAt = now
	wl.UpdatedAt = now
	if wl.Stocks == nil {
		wl.Stocks = []models.WatchlistItem{}
	}

	if _, err := s.db.Collection(collWatchlists).InsertOne(ctx, wl); err != nil {
		return wrapMongoErr(op, err)
	}
	return nil
}

// SetWatchlistStocks целиком заменяет состав списка наблюдения.
// Чтение-модификация-запись выполняет сервисный слой.
func (s *Storage) SetWatchlistStocks(ctx context.Context, id primitive.ObjectID, stocks []models.WatchlistItem) error {
	const op = "storage.SetWatchlistStocks"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.db.Collection(collWatchlists).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"stocks": stocks, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// DeleteWatchlistsByUser удаляет все списки пользователя (каскад
// при удалении аккаунта).
func (s *Storage) DeleteWatchlistsByUser(ctx context.Context, userID primitive.ObjectID) error {
	const op = "storage.DeleteWatchlistsByUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.db.Collection(collWatchlists).DeleteMany(ctx, bson.M{"user": userID}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
