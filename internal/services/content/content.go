// Package content отдаёт редакционные материалы: новости, FAQ и
// глоссарий показателей.
package content

import (
	"context"
	"fmt"

	"github.com/flexbit-dev/flexbit-api/internal/models"
)

// ContentRepository описывает контракт чтения материалов.
type ContentRepository interface {
	ListNews(ctx context.Context, keyword string, page, limit int) ([]*models.News, int64, error)
	ListFaqs(ctx context.Context) ([]*models.Faq, error)
	ListWikis(ctx context.Context, category string) ([]*models.Wiki, error)
}

// NewsPage — страница новостей с метаданными пагинации.
type NewsPage struct {
	News  []*models.News `json:"news"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Pages int64          `json:"pages"`
}

type Service struct {
	content ContentRepository
}

func New(content ContentRepository) *Service {
	return &Service{content: content}
}

// News возвращает страницу новостей, свежие первыми.
func (s *Service) News(ctx context.Context, keyword string, page, limit int) (*NewsPage, error) {
	const op = "services.content.News"

	news, total, err := s.content.ListNews(ctx, keyword, page, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if news == nil {
		news = []*models.News{}
	}
	return &NewsPage{
		News:  news,
		Total: total,
		Page:  page,
		Pages: (total + int64(limit) - 1) / int64(limit),
	}, nil
}

// Faqs возвращает активные вопросы, сгруппированные по категориям.
func (s *Service) Faqs(ctx context.Context) (map[string][]*models.Faq, error) {
	const op = "services.content.Faqs"

	faqs, err := s.content.ListFaqs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	grouped := make(map[string][]*models.Faq)
	for _, f := range faqs {
		grouped[f.Category] = append(grouped[f.Category], f)
	}
	return grouped, nil
}

// Wikis возвращает записи глоссария, опционально по одной категории.
func (s *Service) Wikis(ctx context.Context, category string) ([]*models.Wiki, error) {
	const op = "services.content.Wikis"

	wikis, err := s.content.ListWikis(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if wikis == nil {
		wikis = []*models.Wiki{}
	}
	return wikis, nil
}
