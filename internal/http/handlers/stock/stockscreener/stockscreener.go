// Package stockscreener реализует HTTP-обработчик скринера бумаг по
// измерениям скоринга. Доступ гарантируется middleware с проверкой
// права core_analysis.
package stockscreener

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
)

// Service описывает интерфейс бизнес-логики скринера.
type Service interface {
	Screener(ctx context.Context, f models.ScreenerFilter) ([]*models.Stock, error)
}

// Handler обрабатывает HTTP-запросы скринера.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Скринер бумаг
// @Description Отбирает бумаги по качеству, таймингу и диапазону скоринга. Требует тариф pioneer и выше.
// @Tags Stocks
// @Produce  json
// @Param quality   query string false "Качество бизнеса"
// @Param timing    query string false "Метка тайминга"
// @Param min_score query number false "Нижняя граница скоринга"
// @Param max_score query number false "Верхняя граница скоринга"
// @Success 200 {object} response.Response "Отобранные бумаги"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Тариф не дает доступа к скринеру"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /stocks/screener [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stock.stockscreener"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := r.URL.Query()
	f := models.ScreenerFilter{
		Quality: q.Get("quality"),
		Timing:  q.Get("timing"),
	}
	if v, err := strconv.ParseFloat(q.Get("min_score"), 64); err == nil {
		f.MinScore = &v
	}
	if v, err := strconv.ParseFloat(q.Get("max_score"), 64); err == nil {
		f.MaxScore = &v
	}

	stocks, err := h.service.Screener(r.Context(), f)
	if err != nil {
		log.Error("failed to run screener", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not run screener"))
		return
	}

	log.Info("screener executed", slog.Int("count", len(stocks)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"stocks": stocks,
	}))
}
