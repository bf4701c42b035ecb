package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/possync/internal/models"
	"github.com/iudanet/possync/internal/server/storage"
	"github.com/iudanet/possync/internal/validation"
	"github.com/iudanet/possync/pkg/api"
)

// MaxRecordBodySize ограничивает размер тела запроса на запись
const MaxRecordBodySize = 1 << 20

// URL параметры маршрутов записей
const (
	EntityParam = "entity"
	IDParam     = "id"
)

// RecordsHandler serves the entity record endpoints under /api/v1/records.
type RecordsHandler struct {
	logger  *slog.Logger
	storage storage.RecordStorage
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(logger *slog.Logger, store storage.RecordStorage) *RecordsHandler {
	return &RecordsHandler{
		logger:  logger,
		storage: store,
	}
}

// Create обрабатывает POST /api/v1/records/{entity}
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.entity(w, r, models.ActionCreate)
	if !ok {
		return
	}

	req, payload, ok := h.decode(w, r, kind)
	if !ok {
		return
	}
	if req.ID == "" {
		WriteError(w, h.logger, http.StatusBadRequest, api.CodeBadRequest, "id is required")
		return
	}

	txID := req.TransactionID
	if order, isOrder := payload.(*models.OrderPayload); isOrder && txID == "" {
		txID = order.TransactionID.String()
	}
	if txID != "" && !models.TransactionID(txID).Valid() {
		WriteError(w, h.logger, http.StatusBadRequest, api.CodeValidationFailed,
			fmt.Sprintf("transaction_id %q is malformed", txID))
		return
	}

	deviceID, _ := GetDeviceID(r.Context())
	rec, err := h.storage.CreateRecord(r.Context(), &storage.Record{
		Entity:        string(kind),
		ID:            req.ID,
		TransactionID: txID,
		DeviceID:      deviceID,
		Data:          req.Data,
	})
	if errors.Is(err, storage.ErrDuplicateTransaction) {
		h.logger.Info("Duplicate transaction rejected", "entity", kind, "transaction_id", txID, "device_id", deviceID)
		WriteError(w, h.logger, http.StatusConflict, api.CodeDuplicateTransaction,
			fmt.Sprintf("transaction %s was already recorded", txID))
		return
	}
	if err != nil {
		h.logger.Error("Failed to create record", "error", err, "entity", kind, "id", req.ID)
		WriteError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "failed to store record")
		return
	}

	h.logger.Info("Record created", "entity", kind, "id", rec.ID, "device_id", deviceID)
	WriteJSON(w, h.logger, http.StatusCreated, toAPIRecord(rec))
}

// Update обрабатывает PUT /api/v1/records/{entity}/{id}
// Запись создается, если ее еще нет
func (h *RecordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.entity(w, r, models.ActionUpdate)
	if !ok {
		return
	}
	id := chi.URLParam(r, IDParam)

	req, _, ok := h.decode(w, r, kind)
	if !ok {
		return
	}
	if req.ID != "" && req.ID != id {
		WriteError(w, h.logger, http.StatusBadRequest, api.CodeBadRequest, "id in body does not match the URL")
		return
	}

	deviceID, _ := GetDeviceID(r.Context())
	rec, created, err := h.storage.UpsertRecord(r.Context(), &storage.Record{
		Entity:   string(kind),
		ID:       id,
		DeviceID: deviceID,
		Data:     req.Data,
	})
	if err != nil {
		h.logger.Error("Failed to update record", "error", err, "entity", kind, "id", id)
		WriteError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "failed to store record")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.logger.Info("Record updated", "entity", kind, "id", id, "created", created, "device_id", deviceID)
	WriteJSON(w, h.logger, status, toAPIRecord(rec))
}

// Delete обрабатывает DELETE /api/v1/records/{entity}/{id}
// Удаление отсутствующей записи не является ошибкой: повторная доставка из очереди должна проходить
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.entity(w, r, models.ActionDelete)
	if !ok {
		return
	}
	id := chi.URLParam(r, IDParam)

	deleted, err := h.storage.DeleteRecord(r.Context(), string(kind), id)
	if err != nil {
		h.logger.Error("Failed to delete record", "error", err, "entity", kind, "id", id)
		WriteError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "failed to delete record")
		return
	}

	h.logger.Info("Record deleted", "entity", kind, "id", id, "existed", deleted)
	w.WriteHeader(http.StatusNoContent)
}

// Get обрабатывает GET /api/v1/records/{entity}/{id}
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.entity(w, r, "")
	if !ok {
		return
	}
	id := chi.URLParam(r, IDParam)

	rec, err := h.storage.GetRecord(r.Context(), string(kind), id)
	if errors.Is(err, storage.ErrRecordNotFound) {
		WriteError(w, h.logger, http.StatusNotFound, api.CodeNotFound,
			fmt.Sprintf("%s %s not found", kind, id))
		return
	}
	if err != nil {
		h.logger.Error("Failed to get record", "error", err, "entity", kind, "id", id)
		WriteError(w, h.logger, http.StatusInternalServerError, api.CodeInternal, "failed to read record")
		return
	}

	WriteJSON(w, h.logger, http.StatusOK, toAPIRecord(rec))
}

// entity разбирает сущность из URL и проверяет, что действие для нее поддерживается.
// Пустое действие означает чтение, доступное для всех сущностей
func (h *RecordsHandler) entity(w http.ResponseWriter, r *http.Request, action models.Action) (models.EntityKind, bool) {
	kind, err := models.ParseEntityKind(chi.URLParam(r, EntityParam))
	if err != nil {
		WriteError(w, h.logger, http.StatusNotFound, api.CodeUnknownEntity, err.Error())
		return "", false
	}
	if action != "" && !models.Supports(kind, action) {
		WriteError(w, h.logger, http.StatusMethodNotAllowed, api.CodeBadRequest,
			fmt.Sprintf("%s is not supported for %s", action, kind))
		return "", false
	}
	return kind, true
}

// decode читает тело запроса и проверяет payload по правилам сущности
func (h *RecordsHandler) decode(w http.ResponseWriter, r *http.Request, kind models.EntityKind) (*api.RecordRequest, models.Payload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRecordBodySize)

	var req api.RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid record request", "error", err, "entity", kind)
		WriteError(w, h.logger, http.StatusBadRequest, api.CodeBadRequest, "invalid request body")
		return nil, nil, false
	}
	if len(req.Data) == 0 {
		WriteError(w, h.logger, http.StatusBadRequest, api.CodeBadRequest, "data is required")
		return nil, nil, false
	}

	payload, err := models.DecodePayload(kind, req.Data)
	if err != nil {
		WriteError(w, h.logger, http.StatusBadRequest, api.CodeBadRequest, err.Error())
		return nil, nil, false
	}
	if err := validation.ValidatePayload(payload); err != nil {
		WriteError(w, h.logger, http.StatusUnprocessableEntity, api.CodeValidationFailed, err.Error())
		return nil, nil, false
	}

	return &req, payload, true
}

func toAPIRecord(rec *storage.Record) api.Record {
	return api.Record{
		ID:            rec.ID,
		Entity:        rec.Entity,
		TransactionID: rec.TransactionID,
		DeviceID:      rec.DeviceID,
		Data:          json.RawMessage(rec.Data),
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}
