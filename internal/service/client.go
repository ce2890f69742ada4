package service

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

	"ContentNode/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// SyncRequestBody — тело POST /sync. Контракт: ровно один кошелёк в слайсе
// (батчи сознательно не поддерживаются, см. хендлер).
type SyncRequestBody struct {
	Wallet              []string `json:"wallet"`
	ContentNodeEndpoint string   `json:"content_node_endpoint"`
	Immediate           bool     `json:"immediate,omitempty"`
	BlockNumber         *int64   `json:"blockNumber,omitempty"`
	ForceResync         bool     `json:"forceResync,omitempty"`
	SyncType            string   `json:"sync_type,omitempty"`
}

// ClockStatusResponse — ответ GET /users/clock_status/<wallet>.
// clockValue = -1 означает неизвестного пользователя.
type ClockStatusResponse struct {
	ClockValue     int  `json:"clockValue"`
	SyncInProgress bool `json:"syncInProgress"`
}

// NodeClient — HTTP-клиент к другим узлам сети (export, sync, clock_status).
type NodeClient struct {
	longClient *http.Client // export и sync: payload бывает большим
	pollClient *http.Client // clock_status: короткий таймаут, чтобы зависший узел не стопорил опрос

	selfEndpoint   string
	nodeAuthSecret string
}

func NewNodeClient(cfg *config.Config) *NodeClient {
	return &NodeClient{
		longClient:     &http.Client{Timeout: cfg.SyncRequestTimeout()},
		pollClient:     &http.Client{Timeout: cfg.ClockStatusTimeout()},
		selfEndpoint:   cfg.SelfEndpoint,
		nodeAuthSecret: cfg.NodeAuthSecret,
	}
}

// FetchExport запрашивает у primary экспорт кошелька начиная с clockRangeMin.
func (c *NodeClient) FetchExport(ctx context.Context, endpoint, wallet string, clockRangeMin int) (*ExportPayload, error) {
	q := url.Values{}
	q.Set("wallet_public_key", wallet)
	q.Set("clock_range_min", fmt.Sprintf("%d", clockRangeMin))
	q.Set("source_endpoint", c.selfEndpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(endpoint, "/")+"/export?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.longClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload ExportPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return &payload, nil
}

// TriggerSync шлёт secondary заявку на синхронизацию. Ответ 200 означает
// только "принято/поставлено в очередь", не успех самого импорта.
func (c *NodeClient) TriggerSync(ctx context.Context, endpoint string, body SyncRequestBody) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(endpoint, "/")+"/sync", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.longClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return nil
}

// ClockStatus опрашивает clock кошелька на удалённом узле.
func (c *NodeClient) ClockStatus(ctx context.Context, endpoint, wallet string) (*ClockStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(endpoint, "/")+"/users/clock_status/"+url.PathEscape(wallet), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.pollClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var status ClockStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode clock status: %w", err)
	}
	return &status, nil
}

// authorize подписывает межузловой запрос коротким JWT на общем секрете.
// Пустой секрет — аутентификация в сети выключена.
func (c *NodeClient) authorize(req *http.Request) error {
	if c.nodeAuthSecret == "" {
		return nil
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": c.selfEndpoint,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(c.nodeAuthSecret))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+signed)
	return nil
}
