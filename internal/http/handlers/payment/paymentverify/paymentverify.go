// Package paymentverify реализует HTTP-обработчик ручной проверки заказа.
//
// Синхронный запасной путь для окружений, куда шлюз не может доставить
// вебхук: статус перечитывается у шлюза и применяется та же таблица
// переходов. Маршрут монтируется только вне production.
package paymentverify

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

	"github.com/flexbit-dev/flexbit-api/internal/http/middlewarectx"
	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/services/payment"
)

// Request — структура входных данных для проверки заказа.
// Имя поля orderId — контракт с клиентом, в отличие от вебхука шлюза.
type Request struct {
	OrderID string `json:"orderId" validate:"required"`
}

// Service описывает интерфейс бизнес-логики проверки заказа.
type Service interface {
	VerifyOrder(ctx context.Context, userID primitive.ObjectID, orderID string) (*models.Transaction, error)
}

// Handler обрабатывает HTTP-запросы на ручную проверку заказа.
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
// @Summary Проверить статус заказа вручную
// @Description Перечитывает статус заказа у шлюза и применяет результат. Доступно только вне production.
// @Tags Payment
// @Accept  json
// @Produce  json
// @Param request body Request true "Идентификатор заказа"
// @Success 200 {object} response.Response "Актуальный статус заказа"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Заказ принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка платёжного шлюза"
// @Router /payment/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentverify"

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

	tx, err := h.service.VerifyOrder(r.Context(), user.ID, req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrOrderNotFound):
			log.Info("order not found", slog.String("order_id", req.OrderID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("order not found"))
		case errors.Is(err, payment.ErrNotOrderOwner):
			log.Info("order owned by another user", slog.String("order_id", req.OrderID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("order belongs to another user"))
		case errors.Is(err, payment.ErrGateway):
			log.Error("payment gateway error", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("payment gateway error"))
		default:
			log.Error("failed to verify order", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not verify order"))
		}
		return
	}

	status, message := wireStatus(tx.Status)
	log.Info("order verified",
		slog.String("order_id", req.OrderID),
		slog.String("status", status))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"order_id": tx.OrderID,
		"status":   status,
		"message":  message,
	}))
}

// wireStatus переводит статус транзакции в ответ клиенту. Наружу уходят
// только success|pending|failed: заказ на фрод-проверке для клиента
// остаётся pending.
func wireStatus(txStatus string) (string, string) {
	switch txStatus {
	case models.TxStatusSuccess:
		return "success", "Payment verified"
	case models.TxStatusChallenge:
		return "pending", "Payment challenged"
	case models.TxStatusFailed:
		return "failed", "Payment failed or expired"
	default:
		return "pending", "Payment pending"
	}
}
