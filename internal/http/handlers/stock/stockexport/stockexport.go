// Package stockexport реализует HTTP-обработчик выгрузки каталога бумаг
// в CSV. Доступ гарантируется middleware с проверкой права export_data.
package stockexport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики выгрузки.
type Service interface {
	ExportCSV(ctx context.Context) ([]byte, error)
}

// Handler обрабатывает HTTP-запросы на выгрузку каталога.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выгрузка каталога в CSV
// @Description Возвращает все бумаги одним CSV-файлом. Требует тариф growth и выше.
// @Tags Stocks
// @Produce  text/csv
// @Success 200 {string} string "CSV-файл"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Тариф не дает права на выгрузку"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /stocks/export [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stock.stockexport"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	data, err := h.service.ExportCSV(r.Context())
	if err != nil {
		log.Error("failed to export stocks", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not export stocks"))
		return
	}

	log.Info("stocks exported", slog.Int("bytes", len(data)))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="stocks.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
