package userupdate

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flexbit-dev/flexbit-api/internal/entitlement"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/services/user"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Update(ctx context.Context, id primitive.ObjectID, upd user.Update) (*models.User, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func serve(handler http.Handler, id, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Put("/api/users/{id}", handler.ServeHTTP)

	req := httptest.NewRequest(http.MethodPut, "/api/users/"+id, bytes.NewReader([]byte(body)))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestUserUpdateHandler_ServeHTTP(t *testing.T) {
	targetID := primitive.NewObjectID()
	growth := entitlement.TierGrowth

	tests := []struct {
		name           string
		id             string
		body           string
		setupMocks     func(m *ServiceMock)
		wantStatusCode int
	}{
		{
			name: "tier upgraded by admin",
			id:   targetID.Hex(),
			body: `{"tier":"growth"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("Update", mock.Anything, targetID, user.Update{Tier: &growth}).
					Return(&models.User{ID: targetID}, nil).Once()
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "unknown tier answers 400",
			id:   targetID.Hex(),
			body: `{"tier":"platinum"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("Update", mock.Anything, targetID, mock.Anything).
					Return(nil, user.ErrInvalidTier).Once()
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "unknown user answers 404",
			id:   targetID.Hex(),
			body: `{"role":"admin"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("Update", mock.Anything, targetID, mock.Anything).
					Return(nil, user.ErrUserNotFound).Once()
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "malformed id answers 400",
			id:             "not-an-object-id",
			body:           `{"role":"admin"}`,
			setupMocks:     func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			tt.setupMocks(service)

			handler := New(newNoopLogger(), service)
			rr := serve(handler, tt.id, tt.body)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			service.AssertExpectations(t)
		})
	}
}
