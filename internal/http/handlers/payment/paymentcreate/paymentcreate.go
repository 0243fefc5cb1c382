// Package paymentcreate реализует HTTP-обработчик создания заказа на покупку
// тарифа: открывает checkout-сессию у платёжного шлюза и возвращает токен
// оплаты клиенту.
package paymentcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flexbit-dev/flexbit-api/internal/entitlement"
	"github.com/flexbit-dev/flexbit-api/internal/http/middlewarectx"
	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/services/payment"
)

// Request — структура входных данных для создания заказа.
type Request struct {
	Tier string `json:"tier" validate:"required,oneof=pioneer early_adopter growth pro"`
}

// Service описывает интерфейс бизнес-логики создания заказа.
type Service interface {
	CreateOrder(ctx context.Context, userID primitive.ObjectID, tier entitlement.Tier) (*payment.CheckoutSession, error)
}

// Handler обрабатывает HTTP-запросы на создание заказа.
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
// @Summary Создать заказ на покупку тарифа
// @Description Открывает checkout-сессию у платёжного шлюза. Возвращает order_id и токен оплаты.
// @Tags Payment
// @Accept  json
// @Produce  json
// @Param request body Request true "Покупаемый тариф"
// @Success 200 {object} response.Response "Созданная checkout-сессия"
// @Failure 400 {object} response.ErrorResponse "Тариф недоступен для покупки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка платёжного шлюза"
// @Router /payment/transaction [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentcreate"

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

	session, err := h.service.CreateOrder(r.Context(), user.ID, entitlement.Tier(req.Tier))
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidTier):
			log.Info("order rejected, tier not purchasable", slog.String("tier", req.Tier))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("tier is not purchasable"))
		case errors.Is(err, payment.ErrGateway):
			log.Error("payment gateway error", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("payment gateway error"))
		default:
			log.Error("failed to create order", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create order"))
		}
		return
	}

	log.Info("order created",
		slog.String("user_id", user.ID.Hex()),
		slog.String("order_id", session.OrderID),
		slog.String("tier", req.Tier))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"order_id":     session.OrderID,
		"token":        session.Token,
		"redirect_url": session.RedirectURL,
	}))
}
