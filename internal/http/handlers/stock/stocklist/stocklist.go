// Package stocklist реализует HTTP-обработчик каталога бумаг с фильтрами,
// сортировкой и пагинацией.
package stocklist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/services/stock"
)

// Service описывает интерфейс бизнес-логики каталога бумаг.
type Service interface {
	List(ctx context.Context, f models.StockFilter) (*stock.ListResult, error)
}

// Handler обрабатывает HTTP-запросы на список бумаг.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список бумаг
// @Description Возвращает бумаги с фильтрами по ключевому слову, качеству, таймингу и конфликту сигналов.
// @Tags Stocks
// @Produce  json
// @Param keyword  query string false "Поиск по тикеру или названию компании"
// @Param quality  query string false "Качество бизнеса"
// @Param timing   query string false "Метка тайминга"
// @Param conflict query bool   false "Только бумаги с конфликтом сигналов"
// @Param sort     query string false "score | ticker | price_asc | price_desc"
// @Param page     query int    false "Номер страницы"
// @Param limit    query int    false "Размер страницы"
// @Success 200 {object} response.Response "Страница бумаг"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /stocks [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stock.stocklist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	f := parseFilter(r)

	result, err := h.service.List(r.Context(), f)
	if err != nil {
		log.Error("failed to list stocks", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list stocks"))
		return
	}

	log.Info("stocks listed", slog.Int64("total", result.Total), slog.Int("page", result.Page))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"stocks": result.Stocks,
		"total":  result.Total,
		"page":   result.Page,
		"pages":  result.Pages,
	}))
}

func parseFilter(r *http.Request) models.StockFilter {
	q := r.URL.Query()

	f := models.StockFilter{
		Keyword: q.Get("keyword"),
		Quality: q.Get("quality"),
		Timing:  q.Get("timing"),
		Sort:    q.Get("sort"),
		Page:    1,
		Limit:   20,
	}

	if v := q.Get("conflict"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Conflict = &b
		}
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		f.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit <= 100 {
		f.Limit = limit
	}

	return f
}
