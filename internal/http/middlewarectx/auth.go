// Package middlewarectx содержит HTTP middleware платформы: аутентификацию
// по JWT, проверку роли администратора, проверку прав тарифа и rate limiting.
//
// AuthMiddleware читает токен из cookie "jwt" (клиентское приложение хранит
// его именно там) с запасным вариантом в заголовке Authorization, парсит его
// и загружает пользователя из базы в контекст запроса. Тариф из токена не
// читается: действующий тариф всегда берётся из свежего документа
// пользователя, иначе купленная подписка не действовала бы до перевыпуска
// токена.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/jwt"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mongo"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// CtxUser — ключ, под которым в контексте лежит *models.User.
const CtxUser Key = "user"

// AuthCookieName — имя cookie, в которой клиент хранит JWT.
const AuthCookieName = "jwt"

// UserProvider загружает пользователя по идентификатору из токена.
type UserProvider interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// AuthMiddleware возвращает HTTP middleware, который извлекает JWT из cookie
// или заголовка Authorization, валидирует его и кладёт пользователя в контекст.
//
// При отсутствии или невалидности токена возвращает 401 Unauthorized.
func AuthMiddleware(log *slog.Logger, jwtMaker jwt.Maker, users UserProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AuthMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr := extractToken(r)
			if tokenStr == "" {
				log.Error("missing authentication token")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}

			claims, err := jwtMaker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				log.Error("malformed user id in token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, mongo.ErrNotFound) {
					log.Error("token subject no longer exists")
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, response.Error("invalid or expired token"))
					return
				}
				log.Error("failed to load user", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			ctx := context.WithValue(r.Context(), CtxUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext достаёт пользователя, положенного AuthMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(CtxUser).(*models.User)
	return user, ok && user != nil
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
