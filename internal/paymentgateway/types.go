package paymentgateway

// SnapRequest — запрос на создание checkout-сессии Snap.
type SnapRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	CustomerDetails    CustomerDetails    `json:"customer_details"`
	ItemDetails        []ItemDetail       `json:"item_details"`
}

// TransactionDetails — идентификатор заказа и сумма.
type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

// CustomerDetails — данные покупателя для страницы оплаты.
type CustomerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// ItemDetail — позиция заказа.
type ItemDetail struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

// SnapResponse — ответ шлюза на создание сессии: токен для виджета
// и URL для редиректа на hosted checkout.
type SnapResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Статусы транзакции на стороне шлюза.
const (
	StatusCapture    = "capture"
	StatusSettlement = "settlement"
	StatusPending    = "pending"
	StatusCancel     = "cancel"
	StatusDeny       = "deny"
	StatusExpire     = "expire"
)

// Результаты антифрод-проверки.
const (
	FraudAccept    = "accept"
	FraudChallenge = "challenge"
)

// TransactionStatus — авторитетный статус транзакции, полученный напрямую
// от шлюза. Тело вебхука этим полям не доверяет: реконсилиация всегда
// перечитывает статус этим запросом. GrossAmount шлюз отдаёт строкой
// вида "999000.00".
type TransactionStatus struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	GrossAmount       string `json:"gross_amount"`
	StatusCode        string `json:"status_code"`
	PaymentType       string `json:"payment_type"`
}
