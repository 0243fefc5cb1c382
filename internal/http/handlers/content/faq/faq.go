// Package faq реализует HTTP-обработчик справочных вопросов, сгруппированных
// по категориям.
package faq

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

// Service описывает интерфейс бизнес-логики чтения FAQ.
type Service interface {
	Faqs(ctx context.Context) (map[string][]*models.Faq, error)
}

// Handler обрабатывает HTTP-запросы на чтение FAQ.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Справочные вопросы
// @Description Возвращает активные FAQ, сгруппированные по категориям.
// @Tags Content
// @Produce  json
// @Success 200 {object} response.Response "FAQ по категориям"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /faq [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.faq"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	faqs, err := h.service.Faqs(r.Context())
	if err != nil {
		log.Error("failed to list faqs", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list faqs"))
		return
	}

	log.Info("faqs listed", slog.Int("categories", len(faqs)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"faqs": faqs,
	}))
}
