// Package orderid реализует схему идентификаторов заказов.
//
// Формат: "flxbt-<userID>-<epochMillis>". Идентификатор несёт владельца и
// время создания, что позволяет сопоставить асинхронный колбэк шлюза с
// пользователем без похода в базу. Схема сама по себе уникальность не
// гарантирует (два заказа одного пользователя в одну миллисекунду дадут
// коллизию) — уникальность обеспечивает индекс по order_id в хранилище,
// второй insert упадёт с ошибкой.
//
// Распарсенный userID используется только для информационного поиска:
// границей доверия для вебхука является проверка подписи, а не содержимое
// идентификатора.
package orderid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Prefix — маркер заказов платформы в идентификаторе.
const Prefix = "flxbt"

// ErrMalformed возвращается при разборе строки, не соответствующей схеме.
var ErrMalformed = errors.New("malformed order id")

// Build собирает идентификатор заказа для пользователя на момент now.
func Build(userID string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%d", Prefix, userID, now.UnixMilli())
}

// Parse разбирает идентификатор и возвращает userID владельца и время создания.
func Parse(orderID string) (string, time.Time, error) {
	parts := strings.Split(orderID, "-")
	if len(parts) != 3 || parts[0] != Prefix || parts[1] == "" {
		return "", time.Time{}, ErrMalformed
	}
	millis, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", time.Time{}, ErrMalformed
	}
	return parts[1], time.UnixMilli(millis), nil
}
