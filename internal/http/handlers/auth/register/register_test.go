package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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

	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, email, phoneNumber, fullName, rawPassword string) (*models.User, string, error) {
	args := m.Called(ctx, email, phoneNumber, fullName, rawPassword)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Email: "budi@example.com"}

	tests := []struct {
		name           string
		requestBody    any
		setupMocks     func(m *ServiceMock)
		wantStatusCode int
		wantCookie     bool
	}{
		{
			name: "valid registration",
			requestBody: Request{
				Email:       "budi@example.com",
				PhoneNumber: "081234567890",
				FullName:    "Budi Santoso",
				Password:    "password123",
			},
			setupMocks: func(m *ServiceMock) {
				m.On("Register", mock.Anything, "budi@example.com", "081234567890", "Budi Santoso", "password123").
					Return(user, "signed-token", nil).Once()
			},
			wantStatusCode: http.StatusCreated,
			wantCookie:     true,
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			setupMocks:     func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "validation error - missing password",
			requestBody: Request{
				Email:       "budi@example.com",
				PhoneNumber: "081234567890",
				FullName:    "Budi Santoso",
			},
			setupMocks:     func(_ *ServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name: "duplicate email",
			requestBody: Request{
				Email:       "budi@example.com",
				PhoneNumber: "081234567890",
				FullName:    "Budi Santoso",
				Password:    "password123",
			},
			setupMocks: func(m *ServiceMock) {
				m.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, "", auth.ErrUserExists).Once()
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "service error",
			requestBody: Request{
				Email:       "budi@example.com",
				PhoneNumber: "081234567890",
				FullName:    "Budi Santoso",
				Password:    "password123",
			},
			setupMocks: func(m *ServiceMock) {
				m.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, "", errors.New("storage down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			tt.setupMocks(service)

			handler := New(newNoopLogger(), service, time.Hour, false)

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(v)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(bodyBytes))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)

			if tt.wantCookie {
				cookies := rr.Result().Cookies()
				require.Len(t, cookies, 1)
				assert.Equal(t, "jwt", cookies[0].Name)
				assert.Equal(t, "signed-token", cookies[0].Value)
				assert.True(t, cookies[0].HttpOnly)
			}

			service.AssertExpectations(t)
		})
	}
}
