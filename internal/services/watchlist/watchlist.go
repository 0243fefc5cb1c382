// Package watchlist содержит бизнес-логику списков наблюдения
// и ценовых алертов.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flexbit-dev/flexbit-api/internal/entitlement"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mongo"
)

// Ошибки бизнес-уровня.
var (
	ErrLimitReached   = errors.New("watchlist limit reached for tier")
	ErrAlreadyAdded   = errors.New("ticker already in watchlist")
	ErrNotInWatchlist = errors.New("ticker not in watchlist")
	ErrStockNotFound  = errors.New("stock not found")
	ErrAlertsDenied   = errors.New("tier does not include watchlist alerts")
)

// WatchlistRepository описывает контракт хранения списков наблюдения.
type WatchlistRepository interface {
	GetWatchlistByUser(ctx context.Context, userID primitive.ObjectID, name string) (*models.Watchlist, error)
	CreateWatchlist(ctx context.Context, wl *models.Watchlist) error
	SetWatchlistStocks(ctx context.Context, id primitive.ObjectID, stocks []models.WatchlistItem) error
}

// StockRepository — доступ к бумагам для проверки тикеров и обогащения.
type StockRepository interface {
	GetStockByTicker(ctx context.Context, ticker string) (*models.Stock, error)
	FindStocksByTickers(ctx context.Context, tickers []string) ([]*models.Stock, error)
}

// Service реализует операции со списком наблюдения.
type Service struct {
	log        *slog.Logger
	watchlists WatchlistRepository
	stocks     StockRepository
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, watchlists WatchlistRepository, stocks StockRepository) *Service {
	return &Service{log: log, watchlists: watchlists, stocks: stocks}
}

// Get возвращает список наблюдения пользователя, создавая пустой при
// первом обращении. Позиции обогащаются названием компании и логотипом.
func (s *Service) Get(ctx context.Context, user *models.User) (*models.Watchlist, error) {
	const op = "services.watchlist.Get"

	wl, err := s.getOrCreate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.enrich(ctx, wl); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return wl, nil
}

// Add добавляет тикер в список. Размер списка ограничен тарифом,
// недействительная подписка считается за free.
func (s *Service) Add(ctx context.Context, user *models.User, ticker, notes string) (*models.Watchlist, error) {
	const op = "services.watchlist.Add"
	ticker = strings.ToUpper(ticker)

	if _, err := s.stocks.GetStockByTicker(ctx, ticker); err != nil {
		if errors.Is(err, mongo.ErrNotFound) {
			return nil, ErrStockNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	wl, err := s.getOrCreate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, item := range wl.Stocks {
		if item.Ticker == ticker {
			return nil, ErrAlreadyAdded
		}
	}

	limits := entitlement.LimitsFor(user.EffectiveTier(time.Now()))
	if len(wl.Stocks) >= limits.MaxWatchlistSize {
		return nil, ErrLimitReached
	}

	wl.Stocks = append(wl.Stocks, models.WatchlistItem{
		Ticker:  ticker,
		AddedAt: time.Now(),
		Notes:   notes,
	})
	if err := s.watchlists.SetWatchlistStocks(ctx, wl.ID, wl.Stocks); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.enrich(ctx, wl); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return wl, nil
}

// Remove удаляет тикер из списка.
func (s *Service) Remove(ctx context.Context, user *models.User, ticker string) (*models.Watchlist, error) {
	const op = "services.watchlist.Remove"
	ticker = strings.ToUpper(ticker)

	wl, err := s.getOrCreate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	kept := wl.Stocks[:0]
	found := false
	for _, item := range wl.Stocks {
		if item.Ticker == ticker {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return nil, ErrNotInWatchlist
	}

	wl.Stocks = kept
	if err := s.watchlists.SetWatchlistStocks(ctx, wl.ID, wl.Stocks); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.enrich(ctx, wl); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return wl, nil
}

// SetAlert настраивает ценовой алерт по позиции. Доступно только
// тарифам с функцией watchlist_alerts.
func (s *Service) SetAlert(ctx context.Context, user *models.User, ticker string, alert models.AlertConfig) (*models.Watchlist, error) {
	const op = "services.watchlist.SetAlert"
	ticker = strings.ToUpper(ticker)

	if !entitlement.HasPermission(user.EffectiveTier(time.Now()), entitlement.FeatureWatchlistAlerts) {
		return nil, ErrAlertsDenied
	}

	wl, err := s.getOrCreate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	found := false
	for i := range wl.Stocks {
		if wl.Stocks[i].Ticker == ticker {
			cfg := alert
			wl.Stocks[i].AlertConfig = &cfg
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNotInWatchlist
	}

	if err := s.watchlists.SetWatchlistStocks(ctx, wl.ID, wl.Stocks); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.enrich(ctx, wl); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return wl, nil
}

// ExportCSV собирает выгрузку списка наблюдения.
func (s *Service) ExportCSV(ctx context.Context, user *models.User) ([]byte, error) {
	const op = "services.watchlist.ExportCSV"

	wl, err := s.getOrCreate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.enrich(ctx, wl); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var b strings.Builder
	b.WriteString("ticker,company_name,added_at,notes\n")
	for _, item := range wl.Stocks {
		b.WriteString(fmt.Sprintf("%s,%s,%s,%s\n",
			item.Ticker,
			csvEscape(item.CompanyName),
			item.AddedAt.Format(time.RFC3339),
			csvEscape(item.Notes)))
	}
	return []byte(b.String()), nil
}

func (s *Service) getOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.Watchlist, error) {
	wl, err := s.watchlists.GetWatchlistByUser(ctx, userID, models.DefaultWatchlistName)
	if err == nil {
		return wl, nil
	}
	if !errors.Is(err, mongo.ErrNotFound) {
		return nil, err
	}

	wl = &models.Watchlist{
		UserID: userID,
		Name:   models.DefaultWatchlistName,
		Stocks: []models.WatchlistItem{},
	}
	if err := s.watchlists.CreateWatchlist(ctx, wl); err != nil {
		// Параллельный запрос мог создать список первым.
		if errors.Is(err, mongo.ErrDuplicate) {
			return s.watchlists.GetWatchlistByUser(ctx, userID, models.DefaultWatchlistName)
		}
		return nil, err
	}
	return wl, nil
}

func (s *Service) enrich(ctx context.Context, wl *models.Watchlist) error {
	if len(wl.Stocks) == 0 {
		return nil
	}
	tickers := make([]string, 0, len(wl.Stocks))
	for _, item := range wl.Stocks {
		tickers = append(tickers, item.Ticker)
	}
	stocks, err := s.stocks.FindStocksByTickers(ctx, tickers)
	if err != nil {
		return err
	}
	byTicker := make(map[string]*models.Stock, len(stocks))
	for _, st := range stocks {
		byTicker[st.Ticker] = st
	}
	for i := range wl.Stocks {
		if st, ok := byTicker[wl.Stocks[i].Ticker]; ok {
			wl.Stocks[i].CompanyName = st.CompanyName
			wl.Stocks[i].Logo = st.Logo
		}
	}
	return nil
}

func csvEscape(v string) string {
	if strings.ContainsAny(v, ",\"\n") {
		return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	return v
}
