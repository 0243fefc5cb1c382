package paymentwebhook

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/flexbit-dev/flexbit-api/internal/services/payment"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) HandleNotification(ctx context.Context, n payment.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestWebhookHandler_ServeHTTP(t *testing.T) {
	validBody := `{"order_id":"flxbt-507f1f77bcf86cd799439011-1700000000000","status_code":"200","gross_amount":"999000.00","signature_key":"abc","transaction_status":"settlement","fraud_status":"accept"}`

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		skipService    bool
		wantStatusCode int
		wantBody       string
	}{
		{
			name:           "processed notification answers OK",
			body:           validBody,
			serviceErr:     nil,
			wantStatusCode: http.StatusOK,
			wantBody:       "OK",
		},
		{
			name:           "invalid signature answers 403",
			body:           validBody,
			serviceErr:     payment.ErrInvalidSignature,
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "malformed order id answers 400",
			body:           validBody,
			serviceErr:     payment.ErrBadOrderID,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "internal error answers 500 so the gateway retries",
			body:           validBody,
			serviceErr:     errors.New("storage down"),
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:           "unreadable body answers 400",
			body:           "not a json",
			skipService:    true,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			if !tt.skipService {
				service.On("HandleNotification", mock.Anything, mock.MatchedBy(func(n payment.Notification) bool {
					return n.OrderID == "flxbt-507f1f77bcf86cd799439011-1700000000000" &&
						n.StatusCode == "200" &&
						n.GrossAmount == "999000.00"
				})).Return(tt.serviceErr).Once()
			}

			handler := New(newNoopLogger(), service)

			req := httptest.NewRequest(http.MethodPost, "/api/payment/notification", bytes.NewReader([]byte(tt.body)))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rr.Body.String())
			}

			service.AssertExpectations(t)
		})
	}
}
