// Package userupdate реализует HTTP-обработчик административной правки
// пользователя: роли и подписки. Это единственный путь изменения подписки
// мимо платёжного движка.
package userupdate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flexbit-dev/flexbit-api/internal/entitlement"
	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/services/user"
)

// Request — структура входных данных административной правки.
// Отсутствующие поля не изменяются.
type Request struct {
	Role   *string `json:"role"`
	Tier   *string `json:"tier"`
	Status *string `json:"status"`
}

// Service описывает интерфейс бизнес-логики правки пользователя.
type Service interface {
	Update(ctx context.Context, id primitive.ObjectID, upd user.Update) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы на правку пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Изменить пользователя
// @Description Меняет роль и/или подписку пользователя. Только для администраторов.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param id path string true "Идентификатор пользователя"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} response.Response "Обновленный пользователь"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.userupdate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("malformed user id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	upd := user.Update{Role: req.Role, Status: req.Status}
	if req.Tier != nil {
		tier := entitlement.Tier(*req.Tier)
		upd.Tier = &tier
	}

	updated, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserNotFound):
			log.Info("user not found", slog.String("user_id", id.Hex()))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, user.ErrInvalidTier), errors.Is(err, user.ErrInvalidRole):
			log.Info("update rejected", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			log.Error("failed to update user", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not update user"))
		}
		return
	}

	log.Info("user updated", slog.String("user_id", id.Hex()))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user": updated,
	}))
}
