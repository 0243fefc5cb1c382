// Package paymentwebhook реализует HTTP-обработчик асинхронных уведомлений
// платёжного шлюза.
//
// Имена полей тела — контракт шлюза и не переименовываются. Ответы тоже
// контракт: 200 с телом "OK" после успешной проверки подписи (иначе шлюз
// зашлёт повторами уже аутентифицированный запрос), 403 на неверную
// подпись, 400 на нечитаемый order_id, 500 на внутреннюю ошибку — её шлюз
// ретраит сам.
package paymentwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/services/payment"
)

// Service описывает интерфейс обработки уведомления шлюза.
type Service interface {
	HandleNotification(ctx context.Context, n payment.Notification) error
}

// Handler обрабатывает уведомления платёжного шлюза.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Уведомление платёжного шлюза
// @Description Принимает асинхронное уведомление об изменении статуса оплаты. Подпись — единственная граница доверия.
// @Tags Payment
// @Accept  json
// @Produce  plain
// @Success 200 {string} string "OK"
// @Failure 400 {string} string "Malformed order id"
// @Failure 403 {string} string "Invalid signature"
// @Failure 500 {string} string "Internal error"
// @Router /payment/notification [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentwebhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var n payment.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		log.Error("failed to decode notification body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.service.HandleNotification(r.Context(), n); err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			log.Error("notification signature mismatch", slog.String("order_id", n.OrderID))
			w.WriteHeader(http.StatusForbidden)
		case errors.Is(err, payment.ErrBadOrderID):
			log.Error("malformed order id in notification", slog.String("order_id", n.OrderID))
			w.WriteHeader(http.StatusBadRequest)
		default:
			log.Error("failed to process notification", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	log.Info("notification processed", slog.String("order_id", n.OrderID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
