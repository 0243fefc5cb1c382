// Package stockread реализует HTTP-обработчик карточки бумаги по тикеру.
package stockread

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/services/stock"
)

// Service описывает интерфейс бизнес-логики чтения бумаги.
type Service interface {
	Detail(ctx context.Context, ticker string) (*models.Stock, error)
}

// Handler обрабатывает HTTP-запросы на чтение бумаги по тикеру.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Карточка бумаги
// @Description Возвращает полный анализ бумаги по тикеру.
// @Tags Stocks
// @Produce  json
// @Param ticker path string true "Тикер бумаги"
// @Success 200 {object} response.Response "Данные бумаги"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Бумага не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /stocks/{ticker} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stock.stockread"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		log.Error("missing ticker in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing ticker"))
		return
	}

	res, err := h.service.Detail(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, stock.ErrStockNotFound) {
			log.Info("stock not found", slog.String("ticker", ticker))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("stock not found"))
			return
		}
		log.Error("failed to read stock", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read stock"))
		return
	}

	log.Info("stock read", slog.String("ticker", res.Ticker))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"stock": res,
	}))
}
