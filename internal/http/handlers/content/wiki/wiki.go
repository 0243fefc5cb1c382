// Package wiki реализует HTTP-обработчик статей глоссария с фильтром по
// категории.
package wiki

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
)

// Service описывает интерфейс бизнес-логики чтения глоссария.
type Service interface {
	Wikis(ctx context.Context, category string) ([]*models.Wiki, error)
}

// Handler обрабатывает HTTP-запросы на чтение глоссария.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статьи глоссария
// @Description Возвращает статьи глоссария в порядке display_order, опционально по категории.
// @Tags Content
// @Produce  json
// @Param category query string false "Категория статей"
// @Success 200 {object} response.Response "Список статей"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /wiki [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.wiki"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	wikis, err := h.service.Wikis(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		log.Error("failed to list wikis", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list wikis"))
		return
	}

	log.Info("wikis listed", slog.Int("count", len(wikis)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"wikis": wikis,
	}))
}
