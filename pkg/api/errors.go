package api

// Коды ошибок, которые возвращает сервер в поле ErrorResponse.Error
const (
	CodeBadRequest           = "bad_request"
	CodeValidationFailed     = "validation_failed"
	CodeUnknownEntity        = "unknown_entity"
	CodeNotFound             = "not_found"
	CodeDuplicateTransaction = "duplicate_transaction"
	CodeUnauthorized         = "unauthorized"
	CodeRateLimited          = "rate_limited"
	CodeUnavailable          = "unavailable"
	CodeInternal             = "internal_error"
)

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // машиночитаемый код ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
