package paymentgateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// Signature вычисляет подпись уведомления по документированной схеме шлюза:
// hex(sha512(order_id + status_code + gross_amount + serverKey)).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature сравнивает подпись из уведомления с ожидаемой.
// Сравнение константное по времени. Это единственная граница доверия
// для вебхука: до её прохождения бизнес-поля тела считаются недостоверными.
func VerifySignature(orderID, statusCode, grossAmount, serverKey, signature string) bool {
	expected := Signature(orderID, statusCode, grossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
