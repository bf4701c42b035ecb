package api

import (
	"encoding/json"
	"time"
)

// RecordRequest представляет тело запроса на создание или обновление записи
type RecordRequest struct {
	ID            string          `json:"id"`                       // идентификатор записи
	TransactionID string          `json:"transaction_id,omitempty"` // только для заказов
	Data          json.RawMessage `json:"data"`                     // payload сущности
}

// Record представляет запись в удаленном хранилище
type Record struct {
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	ID            string          `json:"id"`
	Entity        string          `json:"entity"`
	TransactionID string          `json:"transaction_id,omitempty"`
	DeviceID      string          `json:"device_id,omitempty"` // устройство, записавшее последнюю версию
	Data          json.RawMessage `json:"data"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Time    time.Time `json:"time"`
	Status  string    `json:"status"`
	Version string    `json:"version,omitempty"`
}

// TokenResponse представляет выданный токен устройства
type TokenResponse struct {
	AccessToken string `json:"access_token"` // JWT access token
	DeviceID    string `json:"device_id"`
	ExpiresIn   int64  `json:"expires_in"` // время жизни токена в секундах
}
