// Package watchlistexport реализует HTTP-обработчик выгрузки списка
// наблюдения в CSV. Доступ гарантируется middleware с проверкой права
// export_data.
package watchlistexport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/flexbit-dev/flexbit-api/internal/http/middlewarectx"
	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
)

// Service описывает интерфейс бизнес-логики выгрузки списка наблюдения.
type Service interface {
	ExportCSV(ctx context.Context, user *models.User) ([]byte, error)
}

// Handler обрабатывает HTTP-запросы на выгрузку списка наблюдения.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выгрузка списка наблюдения в CSV
// @Description Возвращает список наблюдения CSV-файлом. Требует тариф growth и выше.
// @Tags Watchlist
// @Produce  text/csv
// @Success 200 {string} string "CSV-файл"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Тариф не дает права на выгрузку"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /watchlist/export [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.watchlist.watchlistexport"

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

	data, err := h.service.ExportCSV(r.Context(), user)
	if err != nil {
		log.Error("failed to export watchlist", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not export watchlist"))
		return
	}

	log.Info("watchlist exported", slog.String("user_id", user.ID.Hex()))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="watchlist.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
