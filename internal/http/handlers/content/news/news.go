// Package news реализует HTTP-обработчик ленты новостей с пагинацией и
// поиском по заголовку.
package news

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/services/content"
)

// Service описывает интерфейс бизнес-логики чтения новостей.
type Service interface {
	News(ctx context.Context, keyword string, page, limit int) (*content.NewsPage, error)
}

// Handler обрабатывает HTTP-запросы на чтение новостей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Лента новостей
// @Description Возвращает новости, новые первыми, с поиском по заголовку.
// @Tags Content
// @Produce  json
// @Param keyword query string false "Поиск по заголовку"
// @Param page    query int    false "Номер страницы"
// @Param limit   query int    false "Размер страницы"
// @Success 200 {object} response.Response "Страница новостей"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /news [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.news"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	page, limit := 1, 10
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 50 {
		limit = v
	}

	res, err := h.service.News(r.Context(), q.Get("keyword"), page, limit)
	if err != nil {
		log.Error("failed to list news", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list news"))
		return
	}

	log.Info("news listed", slog.Int64("total", res.Total))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"news":  res.News,
		"total": res.Total,
		"page":  res.Page,
		"pages": res.Pages,
	}))
}
