// Package watchlistadd реализует HTTP-обработчик добавления бумаги в список
// наблюдения с учетом лимита тарифа.
package watchlistadd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/flexbit-dev/flexbit-api/internal/http/middlewarectx"
	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/services/watchlist"
)

// Request — структура входных данных для добавления бумаги.
type Request struct {
	Ticker string `json:"ticker" validate:"required,min=2,max=10"`
	Notes  string `json:"notes" validate:"max=500"`
}

// Service описывает интерфейс бизнес-логики добавления бумаги.
type Service interface {
	Add(ctx context.Context, user *models.User, ticker, notes string) (*models.Watchlist, error)
}

// Handler обрабатывает HTTP-запросы на добавление бумаги.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Добавить бумагу в список наблюдения
// @Description Добавляет бумагу, если лимит тарифа не исчерпан и бумага существует.
// @Tags Watchlist
// @Accept  json
// @Produce  json
// @Param request body Request true "Тикер и заметка"
// @Success 200 {object} response.Response "Обновленный список наблюдения"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Лимит тарифа исчерпан"
// @Failure 404 {object} response.ErrorResponse "Тикер не найден"
// @Failure 409 {object} response.ErrorResponse "Бумага уже в списке"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /watchlist [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.watchlist.watchlistadd"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	wl, err := h.service.Add(r.Context(), user, req.Ticker, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, watchlist.ErrStockNotFound):
			log.Info("ticker not found", slog.String("ticker", req.Ticker))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("stock not found"))
		case errors.Is(err, watchlist.ErrAlreadyAdded):
			log.Info("ticker already in watchlist", slog.String("ticker", req.Ticker))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("ticker already in watchlist"))
		case errors.Is(err, watchlist.ErrLimitReached):
			log.Info("watchlist limit reached", slog.String("user_id", user.ID.Hex()))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("watchlist limit reached, upgrade your plan"))
		default:
			log.Error("failed to add to watchlist", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not add to watchlist"))
		}
		return
	}

	log.Info("ticker added to watchlist",
		slog.String("user_id", user.ID.Hex()),
		slog.String("ticker", req.Ticker))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"watchlist": wl,
	}))
}
