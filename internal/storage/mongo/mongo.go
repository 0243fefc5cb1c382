// Package mongo реализует хранилище данных платформы на основе MongoDB.
// Предоставляет методы работы с пользователями, транзакциями оплаты,
// бумагами, списками наблюдения и справочным контентом.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flexbit-dev/flexbit-api/internal/config"
)

// Имена коллекций.
const (
	collUsers        = "users"
	collTransactions = "transactions"
	collStocks       = "stocks"
	collWatchlists   = "watchlists"
	collNews         = "news"
	collFaqs         = "faqs"
	collWikis        = "wikis"
)

// Storage инкапсулирует подключение к MongoDB и реализует методы
// работы с коллекциями платформы.
type Storage struct {
	client *mongo.Client
	db     *mongo.Database
}

// New подключается к MongoDB и создаёт необходимые индексы.
func New(ctx context.Context, cfg config.MongoConnection) (*Storage, error) {
	const op = "storage.New"

	ctx, cancel := context.WithTimeout(ctx, cfg.MongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Storage{
		client: client,
		db:     client.Database(cfg.MongoDB),
	}
	if err = s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// ensureIndexes создаёт индексы, на которые опирается бизнес-логика.
// Уникальный индекс по order_id — гарантия уникальности идентификатора
// заказа: схема генерации её не обеспечивает, дубликат падает здесь.
func (s *Storage) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "phone_number", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "reset_password_token", Value: 1}}},
		},
		collTransactions: {
			{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "status", Value: 1}}},
		},
		collStocks: {
			{Keys: bson.D{{Key: "ticker", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "analysis.business_quality", Value: 1}}},
			{Keys: bson.D{{Key: "analysis.timing_label", Value: 1}}},
			{Keys: bson.D{{Key: "analysis.score", Value: -1}, {Key: "sector", Value: 1}}},
		},
		collWatchlists: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "name", Value: 1}}, Options: unique},
		},
		collNews: {
			{Keys: bson.D{{Key: "source_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "date", Value: -1}}},
		},
		collFaqs: {
			{Keys: bson.D{{Key: "is_active", Value: 1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		collWikis: {
			{Keys: bson.D{{Key: "source_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "display_order", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("indexes for %s: %w", coll, err)
		}
	}
	return nil
}

// Close закрывает подключение к MongoDB.
func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
