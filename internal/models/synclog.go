package models

import "time"

// SyncStatus состояние записи журнала синхронизации
type SyncStatus string

const (
	SyncPending  SyncStatus = "pending"
	SyncRetrying SyncStatus = "retrying"
	SyncSuccess  SyncStatus = "success"
	SyncError    SyncStatus = "error"
)

// Terminal reports whether status is final.
func (s SyncStatus) Terminal() bool {
	return s == SyncSuccess || s == SyncError
}

// SyncLogEntry представляет одну попытку операции синхронизации.
// Создается в статусе Pending, может переходить в Retrying,
// завершается в Success или Error.
type SyncLogEntry struct {
	Timestamp  time.Time  `json:"timestamp"`             // время создания записи
	ID         string     `json:"id"`                    // UUID записи
	Operation  Action     `json:"operation"`             // тип операции
	Entity     EntityKind `json:"entity"`                // домен
	EntityID   string     `json:"entity_id,omitempty"`   // ID записи для корреляции
	Status     SyncStatus `json:"status"`                // текущий статус
	Error      string     `json:"error,omitempty"`       // текст ошибки, только для Error
	ErrorCode  string     `json:"error_code,omitempty"`  // код ошибки бэкенда, если есть
	DurationMs int64      `json:"duration_ms,omitempty"` // длительность, после завершения
	RetryCount int        `json:"retry_count,omitempty"` // номер последней повторной попытки
}

// Stats агрегированная статистика по содержимому журнала
type Stats struct {
	LastError   *time.Time `json:"last_error,omitempty"`   // время последней ошибки
	LastSuccess *time.Time `json:"last_success,omitempty"` // время последнего успеха
	Total       int        `json:"total"`
	Success     int        `json:"success"`
	Errors      int        `json:"errors"`
	Pending     int        `json:"pending"` // pending + retrying
}
