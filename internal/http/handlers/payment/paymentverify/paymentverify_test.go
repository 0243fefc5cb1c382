package paymentverify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flexbit-dev/flexbit-api/internal/http/middlewarectx"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/services/payment"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) VerifyOrder(ctx context.Context, userID primitive.ObjectID, orderID string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestPaymentVerifyHandler_ServeHTTP(t *testing.T) {
	userID := primitive.NewObjectID()
	user := &models.User{ID: userID, Email: "budi@example.com"}
	orderID := "flxbt-" + userID.Hex() + "-1700000000000"

	tx := func(status string) *models.Transaction {
		return &models.Transaction{UserID: userID, OrderID: orderID, Status: status}
	}

	tests := []struct {
		name           string
		requestBody    string
		setupMocks     func(m *ServiceMock)
		wantStatusCode int
		wantStatus     string
		wantMessage    string
	}{
		{
			name:        "settled order answers success",
			requestBody: `{"orderId":"` + orderID + `"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("VerifyOrder", mock.Anything, userID, orderID).
					Return(tx(models.TxStatusSuccess), nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "success",
			wantMessage:    "Payment verified",
		},
		{
			name:        "challenged order answers pending",
			requestBody: `{"orderId":"` + orderID + `"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("VerifyOrder", mock.Anything, userID, orderID).
					Return(tx(models.TxStatusChallenge), nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "pending",
			wantMessage:    "Payment challenged",
		},
		{
			name:        "pending order answers pending",
			requestBody: `{"orderId":"` + orderID + `"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("VerifyOrder", mock.Anything, userID, orderID).
					Return(tx(models.TxStatusPending), nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "pending",
			wantMessage:    "Payment pending",
		},
		{
			name:        "failed order answers failed",
			requestBody: `{"orderId":"` + orderID + `"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("VerifyOrder", mock.Anything, userID, orderID).
					Return(tx(models.TxStatusFailed), nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "failed",
			wantMessage:    "Payment failed or expired",
		},
		{
			name:           "snake_case field is not accepted",
			requestBody:    `{"order_id":"` + orderID + `"}`,
			setupMocks:     func(_ *ServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:        "unknown order answers 404",
			requestBody: `{"orderId":"` + orderID + `"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("VerifyOrder", mock.Anything, userID, orderID).
					Return(nil, payment.ErrOrderNotFound).Once()
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:        "foreign order answers 403",
			requestBody: `{"orderId":"` + orderID + `"}`,
			setupMocks: func(m *ServiceMock) {
				m.On("VerifyOrder", mock.Anything, userID, orderID).
					Return(nil, payment.ErrNotOrderOwner).Once()
			},
			wantStatusCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			tt.setupMocks(service)

			handler := New(newNoopLogger(), service)

			req := httptest.NewRequest(http.MethodPost, "/api/payment/verify", bytes.NewReader([]byte(tt.requestBody)))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.CtxUser, user))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			if tt.wantStatus != "" {
				var resp struct {
					Data struct {
						Status  string `json:"status"`
						Message string `json:"message"`
					} `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantStatus, resp.Data.Status)
				assert.Equal(t, tt.wantMessage, resp.Data.Message)
				assert.Contains(t, []string{"success", "pending", "failed"}, resp.Data.Status)
			}
			service.AssertExpectations(t)
		})
	}
}
