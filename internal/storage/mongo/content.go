package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flexbit-dev/flexbit-api/internal/models"
)

// ListNews возвращает страницу новостей, свежие первыми. Ключевое
// слово ищется по заголовку.
func (s *Storage) ListNews(ctx context.Context, keyword string, page, limit int) ([]*models.News, int64, error) {
	const op = "storage.ListNews"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := bson.M{}
	if keyword != "" {
		query["headline"] = bson.M{"$regex": keyword, "$options": "i"}
	}
	coll := s.db.Collection(collNews)

	total, err := coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(limit * (page - 1)))

	cur, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	var result []*models.News
	if err := cur.All(ctx, &result); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// ListFaqs возвращает активные вопросы, сгруппированные по категории.
func (s *Storage) ListFaqs(ctx context.Context) ([]*models.Faq, error) {
	const op = "storage.ListFaqs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	cur, err := s.db.Collection(collFaqs).Find(ctx,
		bson.M{"is_active": true},
		options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var result []*models.Faq
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListWikis возвращает записи глоссария в порядке отображения,
// опционально по одной категории поля.
func (s *Storage) ListWikis(ctx context.Context, category string) ([]*models.Wiki, error) {
	const op = "storage.ListWikis"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := bson.M{}
	if category != "" {
		query["field_category"] = category
	}

	cur, err := s.db.Collection(collWikis).Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "display_order", Value: 1}, {Key: "source_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var result []*models.Wiki
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
