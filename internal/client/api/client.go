package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/possync/internal/models"
	"github.com/iudanet/possync/pkg/api"
)

// DefaultTimeout таймаут HTTP запроса по умолчанию
const DefaultTimeout = 30 * time.Second

// Client представляет HTTP клиент удаленного хранилища записей
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// Option настраивает Client
type Option func(*Client)

// WithAccessToken задает bearer токен устройства
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = token
	}
}

// WithTimeout задает таймаут одного HTTP запроса
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient создает новый API клиент
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAccessToken заменяет bearer токен устройства
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

// CreateRecord создает запись. Для заказов передает transaction_id,
// по которому сервер отклоняет повторное создание.
func (c *Client) CreateRecord(ctx context.Context, kind models.EntityKind, id string, payload models.Payload) (*api.Record, error) {
	req, err := newRecordRequest(id, payload)
	if err != nil {
		return nil, err
	}

	var resp api.Record
	if err := c.doRequest(ctx, http.MethodPost, recordsPath(kind), req, &resp); err != nil {
		return nil, fmt.Errorf("create %s request failed: %w", kind, err)
	}
	return &resp, nil
}

// UpdateRecord создает или заменяет запись по id
func (c *Client) UpdateRecord(ctx context.Context, kind models.EntityKind, id string, payload models.Payload) (*api.Record, error) {
	req, err := newRecordRequest(id, payload)
	if err != nil {
		return nil, err
	}

	var resp api.Record
	if err := c.doRequest(ctx, http.MethodPut, recordPath(kind, id), req, &resp); err != nil {
		return nil, fmt.Errorf("update %s request failed: %w", kind, err)
	}
	return &resp, nil
}

// DeleteRecord удаляет запись. Удаление отсутствующей записи не является ошибкой.
func (c *Client) DeleteRecord(ctx context.Context, kind models.EntityKind, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, recordPath(kind, id), nil, nil); err != nil {
		return fmt.Errorf("delete %s request failed: %w", kind, err)
	}
	return nil
}

// GetRecord получает запись по id
func (c *Client) GetRecord(ctx context.Context, kind models.EntityKind, id string) (*api.Record, error) {
	var resp api.Record
	if err := c.doRequest(ctx, http.MethodGet, recordPath(kind, id), nil, &resp); err != nil {
		return nil, fmt.Errorf("get %s request failed: %w", kind, err)
	}
	return &resp, nil
}

func newRecordRequest(id string, payload models.Payload) (*api.RecordRequest, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req := &api.RecordRequest{ID: id, Data: data}
	if order, ok := payload.(*models.OrderPayload); ok {
		req.TransactionID = order.TransactionID.String()
	}
	return req, nil
}

func recordsPath(kind models.EntityKind) string {
	return "/api/v1/records/" + url.PathEscape(string(kind))
}

func recordPath(kind models.EntityKind, id string) string {
	return recordsPath(kind) + "/" + url.PathEscape(id)
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp.StatusCode, respBody)
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
