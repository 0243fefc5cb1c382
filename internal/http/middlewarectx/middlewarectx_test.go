package middlewarectx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"

	"github.com/flexbit-dev/flexbit-api/internal/entitlement"
	"github.com/flexbit-dev/flexbit-api/internal/lib/jwt"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/storage/mongo"
)

type UserProviderMock struct {
	mock.Mock
}

func (m *UserProviderMock) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestAuthMiddleware(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	userID := primitive.NewObjectID()
	user := &models.User{ID: userID, Email: "budi@example.com", Role: "user"}

	validToken, err := maker.GenerateToken(userID.Hex(), "user")
	require.NoError(t, err)

	tests := []struct {
		name           string
		prepareRequest func(r *http.Request)
		setupMocks     func(m *UserProviderMock)
		wantStatus     int
		wantNext       bool
	}{
		{
			name: "success - token in cookie",
			prepareRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: validToken})
			},
			setupMocks: func(m *UserProviderMock) {
				m.On("GetUserByID", mock.Anything, userID).Return(user, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name: "success - bearer header fallback",
			prepareRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+validToken)
			},
			setupMocks: func(m *UserProviderMock) {
				m.On("GetUserByID", mock.Anything, userID).Return(user, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:           "missing token",
			prepareRequest: func(_ *http.Request) {},
			setupMocks:     func(_ *UserProviderMock) {},
			wantStatus:     http.StatusUnauthorized,
		},
		{
			name: "garbage token",
			prepareRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "not-a-jwt"})
			},
			setupMocks: func(_ *UserProviderMock) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "token subject deleted",
			prepareRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: AuthCookieName, Value: validToken})
			},
			setupMocks: func(m *UserProviderMock) {
				m.On("GetUserByID", mock.Anything, userID).Return(nil, mongo.ErrNotFound).Once()
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UserProviderMock)
			tt.setupMocks(users)

			next, called := okHandler()
			handler := AuthMiddleware(newTestLogger(), maker, users)(next)

			req := httptest.NewRequest(http.MethodGet, "/api/stocks", nil)
			tt.prepareRequest(req)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantNext, *called)
			users.AssertExpectations(t)
		})
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	expiredMaker := jwt.NewJWTMaker("test-secret", -time.Minute)
	token, err := expiredMaker.GenerateToken(primitive.NewObjectID().Hex(), "user")
	require.NoError(t, err)

	next, called := okHandler()
	handler := AuthMiddleware(newTestLogger(), expiredMaker, new(UserProviderMock))(next)

	req := httptest.NewRequest(http.MethodGet, "/api/stocks", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: token})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, *called)
}

func withUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), CtxUser, user))
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		feature    entitlement.Feature
		wantStatus int
	}{
		{
			name: "growth tier exports data",
			user: &models.User{
				ID:           primitive.NewObjectID(),
				Subscription: models.Subscription{Tier: entitlement.TierGrowth, Status: entitlement.StatusActive},
			},
			feature:    entitlement.FeatureExportData,
			wantStatus: http.StatusOK,
		},
		{
			name: "free tier denied core analysis",
			user: &models.User{
				ID:           primitive.NewObjectID(),
				Subscription: models.Subscription{Tier: entitlement.TierFree, Status: entitlement.StatusActive},
			},
			feature:    entitlement.FeatureCoreAnalysis,
			wantStatus: http.StatusForbidden,
		},
		{
			name: "expired growth treated as free",
			user: &models.User{
				ID: primitive.NewObjectID(),
				Subscription: models.Subscription{
					Tier:       entitlement.TierGrowth,
					Status:     entitlement.StatusActive,
					ExpiryDate: func() *time.Time { d := time.Now().Add(-time.Hour); return &d }(),
				},
			},
			feature:    entitlement.FeatureExportData,
			wantStatus: http.StatusForbidden,
		},
		{
			name: "pioneer lifetime keeps core analysis",
			user: &models.User{
				ID:           primitive.NewObjectID(),
				Subscription: models.Subscription{Tier: entitlement.TierPioneer, Status: entitlement.StatusActive},
			},
			feature:    entitlement.FeatureCoreAnalysis,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _ := okHandler()
			handler := RequirePermission(newTestLogger(), tt.feature)(next)

			req := withUser(httptest.NewRequest(http.MethodGet, "/api/stocks", nil), tt.user)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestRequirePermission_NoUserInContext(t *testing.T) {
	next, called := okHandler()
	handler := RequirePermission(newTestLogger(), entitlement.FeatureCoreAnalysis)(next)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stocks", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, *called)
}

func TestAdminOnly(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{name: "admin allowed", role: "admin", wantStatus: http.StatusOK},
		{name: "regular user denied", role: "user", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _ := okHandler()
			handler := AdminOnly(newTestLogger())(next)

			user := &models.User{ID: primitive.NewObjectID(), Role: tt.role}
			req := withUser(httptest.NewRequest(http.MethodGet, "/api/users", nil), user)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0), 2)
	next, _ := okHandler()
	handler := RateLimitMiddleware(newTestLogger(), limiter)(next)

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}
