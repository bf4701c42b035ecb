package models

import (
	"strings"
	"time"
)

// TransactionIDPrefix префикс идентификаторов транзакций
const TransactionIDPrefix = "txn_"

// TransactionID идентификатор логической попытки оформления заказа.
// Генерируется клиентом и не меняется между повторами одной попытки.
type TransactionID string

// Valid reports whether id has the expected shape.
func (id TransactionID) Valid() bool {
	s := string(id)
	return strings.HasPrefix(s, TransactionIDPrefix) && len(s) > len(TransactionIDPrefix)
}

func (id TransactionID) String() string { return string(id) }

// TransactionRecord запись об успешно отправленной транзакции
type TransactionRecord struct {
	SubmittedAt time.Time     `json:"submitted_at"`
	ID          TransactionID `json:"id"`
}

// Expired reports whether record is older than retention at now.
// Zero retention means records never expire.
func (r TransactionRecord) Expired(now time.Time, retention time.Duration) bool {
	if retention <= 0 {
		return false
	}
	return now.Sub(r.SubmittedAt) >= retention
}
