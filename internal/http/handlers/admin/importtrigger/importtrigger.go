// Package importtrigger реализует HTTP-обработчик ручного запуска импорта
// данных из аналитической базы. Только для администраторов.
package importtrigger

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/services/importer"
)

// Service описывает интерфейс запуска импорта.
type Service interface {
	Run(ctx context.Context) (*importer.Result, error)
}

// Handler обрабатывает HTTP-запросы на ручной запуск импорта.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Запустить импорт вручную
// @Description Выполняет полный цикл импорта из аналитической базы и возвращает итоги прогона.
// @Tags Admin
// @Produce  json
// @Success 200 {object} response.Response "Итоги прогона"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 500 {object} response.ErrorResponse "Импорт завершился ошибкой"
// @Router /admin/import [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.importtrigger"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	result, err := h.service.Run(r.Context())
	if err != nil {
		log.Error("manual import failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("import failed"))
		return
	}

	log.Info("manual import finished",
		slog.Int("total", result.Total),
		slog.Int("success", result.Success),
		slog.Int("errors", result.Errors))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"total":    result.Total,
		"success":  result.Success,
		"errors":   result.Errors,
		"duration": result.Duration.String(),
	}))
}
