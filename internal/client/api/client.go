// Package api содержит HTTP клиент полевого приложения: аутентификация,
// диспатч отложенных мутаций на entity-эндпоинты, загрузка правил
// приоритизации и отчеты о состоянии очереди.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/pkg/api"
)

// ErrPermanent помечает ошибку диспатча, которую повтор не исправит:
// отказ валидации сервером или конфликт версий. Движок синхронизации
// переводит такой элемент в терминальное FAILED без retry.
var ErrPermanent = errors.New("permanent dispatch failure")

// entityPaths маршруты entity-эндпоинтов по типу сущности
var entityPaths = map[models.EntityType]string{
	models.EntityAssessment: "/api/v1/assessments",
	models.EntityResponse:   "/api/v1/responses",
	models.EntityMedia:      "/api/v1/media",
	models.EntityIncident:   "/api/v1/incidents",
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
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
}

// Login выполняет аутентификацию координатора
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/login", "", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обновляет пару токенов по refresh token
func (c *Client) Refresh(ctx context.Context, req api.RefreshRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/refresh", "", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// StepUp запрашивает короткоживущий elevated токен для больших override
func (c *Client) StepUp(ctx context.Context, token string, req api.StepUpRequest) (*api.StepUpResponse, error) {
	var resp api.StepUpResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/stepup", token, req, &resp)
	if err != nil {
		return nil, fmt.Errorf("step-up request failed: %w", err)
	}
	return &resp, nil
}

// Dispatch отправляет одну отложенную мутацию на entity-эндпоинт.
// CREATE -> POST /коллекция, UPDATE -> PUT /коллекция/{id},
// DELETE -> DELETE /коллекция/{id}. Успех — 2xx с success=true в конверте.
// Ошибки, которые повтор не исправит, оборачиваются в ErrPermanent.
func (c *Client) Dispatch(ctx context.Context, token string, item *models.QueueItem) error {
	base, ok := entityPaths[item.EntityType]
	if !ok {
		return fmt.Errorf("%w: no endpoint for entity type %q", ErrPermanent, item.EntityType)
	}

	var method, path string
	switch item.Operation {
	case models.OperationCreate:
		method, path = "POST", base
	case models.OperationUpdate:
		method, path = "PUT", base+"/"+item.EntityID
	case models.OperationDelete:
		method, path = "DELETE", base+"/"+item.EntityID
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrPermanent, item.Operation)
	}

	var body any
	if len(item.Payload) > 0 {
		body = json.RawMessage(item.Payload)
	}

	status, respBody, err := c.do(ctx, method, path, token, body)
	if err != nil {
		// Сетевой сбой или таймаут: транзиентно, движок повторит
		return fmt.Errorf("dispatch request failed: %w", err)
	}

	if status >= 200 && status < 300 {
		var envelope api.Envelope
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			return fmt.Errorf("failed to decode dispatch envelope: %w", err)
		}
		if !envelope.Success {
			return fmt.Errorf("%w: server rejected operation: %v", ErrPermanent, envelope.Errors)
		}
		return nil
	}

	return classifyStatus(status, respBody)
}

// FetchRules загружает активные правила приоритизации
func (c *Client) FetchRules(ctx context.Context, token string) ([]models.PriorityRule, error) {
	var resp api.RulesListResponse
	err := c.doRequest(ctx, "GET", "/api/v1/sync/priority/rules", token, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch rules request failed: %w", err)
	}

	rules := make([]models.PriorityRule, 0, len(resp.Rules))
	for _, r := range resp.Rules {
		rule, err := ruleFromWire(r)
		if err != nil {
			return nil, fmt.Errorf("invalid rule %s: %w", r.ID, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// ReportQueue отправляет снимок локальной очереди в серверное зеркало
func (c *Client) ReportQueue(ctx context.Context, token string, req api.QueueReportRequest) (*api.QueueReportResponse, error) {
	var resp api.QueueReportResponse
	err := c.doRequest(ctx, "POST", "/api/v1/sync/queue/report", token, req, &resp)
	if err != nil {
		return nil, fmt.Errorf("queue report request failed: %w", err)
	}
	return &resp, nil
}

// Recalculate запускает пересчет приоритетов на серверном зеркале
func (c *Client) Recalculate(ctx context.Context, token string) (*api.RecalculateResponse, error) {
	var resp api.RecalculateResponse
	err := c.doRequest(ctx, "POST", "/api/v1/sync/priority/recalculate", token, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("recalculate request failed: %w", err)
	}
	return &resp, nil
}

// Override применяет ручное переопределение приоритета на серверном зеркале
func (c *Client) Override(ctx context.Context, token string, req api.OverrideRequest) (*api.OverrideResponse, error) {
	var resp api.OverrideResponse
	err := c.doRequest(ctx, "POST", "/api/v1/sync/priority/override", token, req, &resp)
	if err != nil {
		return nil, fmt.Errorf("override request failed: %w", err)
	}
	return &resp, nil
}

// classifyStatus решает, стоит ли повторять запрос с этим статусом.
// 409 — конфликт версий, терминален; прочие 4xx (кроме 408/429) — тоже.
func classifyStatus(status int, body []byte) error {
	var errResp api.ErrorResponse
	msg := string(body)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		msg = errResp.Error
	}

	transient := status >= 500 || status == http.StatusRequestTimeout || status == http.StatusTooManyRequests
	if transient {
		return fmt.Errorf("server error (%d): %s", status, msg)
	}
	return fmt.Errorf("%w: server error (%d): %s", ErrPermanent, status, msg)
}

// ruleFromWire конвертирует wire-правило во внутреннюю модель с валидацией условий
func ruleFromWire(r api.RuleResponse) (models.PriorityRule, error) {
	conditions := make([]models.Condition, 0, len(r.Conditions))
	for _, c := range r.Conditions {
		conditions = append(conditions, models.Condition{
			Field:  c.Field,
			Op:     models.ConditionOp(c.Op),
			Value:  c.Value,
			Values: c.Values,
		})
	}

	rule := models.PriorityRule{
		ID:               r.ID,
		Name:             r.Name,
		EntityType:       models.EntityType(r.EntityType),
		Conditions:       conditions,
		PriorityModifier: r.PriorityModifier,
		IsActive:         r.IsActive,
	}
	if err := rule.Validate(); err != nil {
		return models.PriorityRule{}, err
	}
	return rule, nil
}

// doRequest выполняет HTTP запрос и декодирует успешный ответ в result
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	status, respBody, err := c.do(ctx, method, path, token, body)
	if err != nil {
		return err
	}

	// Проверяем статус код
	if status < 200 || status >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error (%d): %s", status, errResp.Error)
		}
		return fmt.Errorf("request failed with status %d: %s", status, string(respBody))
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// do выполняет запрос и возвращает статус и тело без интерпретации
func (c *Client) do(ctx context.Context, method, path, token string, body any) (int, []byte, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
