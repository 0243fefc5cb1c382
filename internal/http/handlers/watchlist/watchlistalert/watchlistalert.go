// Package watchlistalert реализует HTTP-обработчик настройки ценового
// алерта по бумаге из списка наблюдения.
package watchlistalert

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/flexbit-dev/flexbit-api/internal/http/middlewarectx"
	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/services/watchlist"
)

// Request — структура входных данных для настройки алерта.
type Request struct {
	PriceAbove *float64 `json:"price_above"`
	PriceBelow *float64 `json:"price_below"`
	Active     bool     `json:"active"`
}

// Service описывает интерфейс бизнес-логики настройки алерта.
type Service interface {
	SetAlert(ctx context.Context, user *models.User, ticker string, alert models.AlertConfig) (*models.Watchlist, error)
}

// Handler обрабатывает HTTP-запросы на настройку алерта.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Настроить алерт по бумаге
// @Description Устанавливает ценовые пороги алерта. Требует тариф growth и выше.
// @Tags Watchlist
// @Accept  json
// @Produce  json
// @Param ticker path string true "Тикер бумаги"
// @Param request body Request true "Настройка алерта"
// @Success 200 {object} response.Response "Обновленный список наблюдения"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Тариф не дает права на алерты"
// @Failure 404 {object} response.ErrorResponse "Тикера нет в списке"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /watchlist/{ticker}/alert [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.watchlist.watchlistalert"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		log.Error("missing ticker in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing ticker"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	alert := models.AlertConfig{
		PriceAbove: req.PriceAbove,
		PriceBelow: req.PriceBelow,
		Active:     req.Active,
	}

	wl, err := h.service.SetAlert(r.Context(), user, ticker, alert)
	if err != nil {
		switch {
		case errors.Is(err, watchlist.ErrAlertsDenied):
			log.Info("alerts denied by tier", slog.String("user_id", user.ID.Hex()))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("watchlist alerts require a higher plan"))
		case errors.Is(err, watchlist.ErrNotInWatchlist):
			log.Info("ticker not in watchlist", slog.String("ticker", ticker))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("ticker not in watchlist"))
		default:
			log.Error("failed to set alert", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not set alert"))
		}
		return
	}

	log.Info("alert configured",
		slog.String("user_id", user.ID.Hex()),
		slog.String("ticker", ticker))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"watchlist": wl,
	}))
}
