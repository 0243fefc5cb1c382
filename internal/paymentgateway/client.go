// Package paymentgateway реализует клиент платежного шлюза Midtrans:
// создание Snap-сессии оплаты и запрос авторитетного статуса транзакции.
package paymentgateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client клиент API шлюза. Авторизация — Basic с серверным ключом
// и пустым паролем.
type Client struct {
	serverKey  string
	snapURL    string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент шлюза. Вне боевого окружения используются
// sandbox-хосты.
func NewClient(serverKey string, production bool) *Client {
	snapURL := "https://app.sandbox.midtrans.com/snap/v1"
	apiURL := "https://api.sandbox.midtrans.com/v2"
	if production {
		snapURL = "https://app.midtrans.com/snap/v1"
		apiURL = "https://api.midtrans.com/v2"
	}
	return &Client{
		serverKey:  serverKey,
		snapURL:    snapURL,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.serverKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// CreateSnapTransaction открывает checkout-сессию и возвращает токен
// виджета и redirect URL.
func (c *Client) CreateSnapTransaction(ctx context.Context, params SnapRequest) (*SnapResponse, error) {
	const op = "paymentgateway.CreateSnapTransaction"

	req, err := c.newRequest(ctx, http.MethodPost, c.snapURL+"/transactions", params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var snapResp SnapResponse
	if err := json.NewDecoder(resp.Body).Decode(&snapResp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &snapResp, nil
}

// GetTransactionStatus перечитывает статус транзакции у шлюза по orderID.
// Источник истины при реконсилиации вебхуков: полям тела уведомления
// бизнес-логика не доверяет.
func (c *Client) GetTransactionStatus(ctx context.Context, orderID string) (*TransactionStatus, error) {
	const op = "paymentgateway.GetTransactionStatus"

	req, err := c.newRequest(ctx, http.MethodGet, c.apiURL+"/"+orderID+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var status TransactionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &status, nil
}
