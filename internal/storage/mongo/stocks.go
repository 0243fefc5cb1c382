package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flexbit-dev/flexbit-api/internal/models"
)

// buildStockFilter собирает bson-фильтр из параметров списка.
// Ключевое слово заранее валидируется обработчиком (буквы, цифры,
// пробелы, точки, дефисы), поэтому его можно подставлять в $regex.
func buildStockFilter(f models.StockFilter) bson.M {
	query := bson.M{}

	if f.Keyword != "" {
		query["$or"] = bson.A{
			bson.M{"ticker": bson.M{"$regex": f.Keyword, "$options": "i"}},
			bson.M{"company_name": bson.M{"$regex": f.Keyword, "$options": "i"}},
		}
	}
	if f.Quality != "" && f.Quality != "All" {
		query["analysis.business_quality"] = f.Quality
	}
	if f.Timing != "" {
		// Метки тайминга содержат уточнения ("Momentum Bagus" и т.п.),
		// базовые категории матчатся по подстроке.
		switch f.Timing {
		case "Momentum", "Akumulasi", "Stabilisasi", "Hindari":
			query["analysis.timing_label"] = bson.M{"$regex": f.Timing, "$options": "i"}
		default:
			query["analysis.timing_label"] = f.Timing
		}
	}
	if f.Conflict != nil {
		query["analysis.conflict.has_conflict"] = *f.Conflict
	}
	return query
}

func stockSortOption(sort string) bson.D {
	switch sort {
	case "ticker":
		return bson.D{{Key: "ticker", Value: 1}}
	case "price_asc":
		return bson.D{{Key: "technical.last_price", Value: 1}}
	case "price_desc":
		return bson.D{{Key: "technical.last_price", Value: -1}}
	default:
		return bson.D{{Key: "analysis.score", Value: -1}}
	}
}

// ListStocks возвращает страницу бумаг по фильтру и общее число совпадений.
func (s *Storage) ListStocks(ctx context.Context, f models.StockFilter) ([]*models.Stock, int64, error) {
	const op = "storage.ListStocks"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := buildStockFilter(f)
	coll := s.db.Collection(collStocks)

	total, err := coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	opts := options.Find().
		SetSort(stockSortOption(f.Sort)).
		SetLimit(int64(f.Limit)).
		SetSkip(int64(f.Limit * (f.Page - 1)))

	cur, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	var result []*models.Stock
	if err := cur.All(ctx, &result); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// GetStockByTicker возвращает бумагу по тикеру (без учёта регистра на входе).
func (s *Storage) GetStockByTicker(ctx context.Context, ticker string) (*models.Stock, error) {
	const op = "storage.GetStockByTicker"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var stock models.Stock
	err := s.db.Collection(collStocks).FindOne(ctx,
		bson.M{"ticker": strings.ToUpper(ticker)}).Decode(&stock)
	if err != nil {
		return nil, wrapMongoErr(op, err)
	}
	return &stock, nil
}

// FindStocksByTickers возвращает бумаги по списку тикеров. Используется
// для обогащения списка наблюдения логотипами и названиями компаний.
func (s *Storage) FindStocksByTickers(ctx context.Context, tickers []string) ([]*models.Stock, error) {
	const op = "storage.FindStocksByTickers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	cur, err := s.db.Collection(collStocks).Find(ctx, bson.M{"ticker": bson.M{"$in": tickers}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var result []*models.Stock
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ScreenerStocks возвращает бумаги по измерениям скоринга,
// отсортированные по убыванию итогового балла.
func (s *Storage) ScreenerStocks(ctx context.Context, f models.ScreenerFilter) ([]*models.Stock, error) {
	const op = "storage.ScreenerStocks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := bson.M{}
	if f.Quality != "" {
		query["analysis.business_quality"] = f.Quality
	}
	if f.Timing != "" {
		query["analysis.timing_label"] = f.Timing
	}
	if f.MinScore != nil || f.MaxScore != nil {
		scoreRange := bson.M{}
		if f.MinScore != nil {
			scoreRange["$gte"] = *f.MinScore
		}
		if f.MaxScore != nil {
			scoreRange["$lte"] = *f.MaxScore
		}
		query["analysis.score"] = scoreRange
	}

	cur, err := s.db.Collection(collStocks).Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "analysis.score", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var result []*models.Stock
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AllStocks возвращает все бумаги по алфавиту тикеров (для выгрузки CSV).
func (s *Storage) AllStocks(ctx context.Context) ([]*models.Stock, error) {
	const op = "storage.AllStocks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	cur, err := s.db.Collection(collStocks).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "ticker", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var result []*models.Stock
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// StockStats агрегирует распределение бумаг по качеству, таймингу и
// конфликту сигналов.
func (s *Storage) StockStats(ctx context.Context) (*models.StockStats, error) {
	const op = "storage.StockStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	coll := s.db.Collection(collStocks)
	stats := &models.StockStats{}

	var err error
	if stats.Total, err = coll.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Распределение по качеству бизнеса одним pipeline.
	cur, err := coll.Aggregate(ctx, bson.A{
		bson.M{"$group": bson.M{"_id": "$analysis.business_quality", "count": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var buckets []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, b := range buckets {
		switch b.ID {
		case "Sangat Solid":
			stats.Quality.Solid = b.Count
		case "Cukup Sehat":
			stats.Quality.Fair = b.Count
		case "Perlu Perhatian":
			stats.Quality.Attention = b.Count
		case "Bermasalah":
			stats.Quality.Troubled = b.Count
		}
	}

	// Метки тайминга матчатся по подстроке, как и в фильтре списка.
	timingCounts := []struct {
		label string
		dst   *int64
	}{
		{"Momentum", &stats.Timing.Momentum},
		{"Akumulasi", &stats.Timing.Accumulation},
		{"Stabilisasi", &stats.Timing.Stabilization},
		{"Hindari", &stats.Timing.Avoid},
	}
	for _, tc := range timingCounts {
		n, err := coll.CountDocuments(ctx,
			bson.M{"analysis.timing_label": bson.M{"$regex": tc.label, "$options": "i"}})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		*tc.dst = n
	}

	if stats.Conflict.HasConflict, err = coll.CountDocuments(ctx,
		bson.M{"analysis.conflict.has_conflict": true}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if stats.Conflict.Aligned, err = coll.CountDocuments(ctx,
		bson.M{"analysis.conflict.has_conflict": false}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

// UpsertStock вставляет или обновляет бумагу по тикеру. Используется
// импортёром: документ заменяется целиком, _id сохраняется.
func (s *Storage) UpsertStock(ctx context.Context, stock models.Stock) error {
	const op = "storage.UpsertStock"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	stock.ID = primitive.NilObjectID
	stock.UpdatedAt = time.Now()

	_, err := s.db.Collection(collStocks).ReplaceOne(ctx,
		bson.M{"ticker": stock.Ticker},
		stock,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
