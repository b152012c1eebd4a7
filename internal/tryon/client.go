package tryon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrConfigInvalid  = errors.New("tryon config invalid")
	ErrRequestFailed  = errors.New("tryon request failed")
	ErrRequestReject  = errors.New("tryon request rejected")
)

const defaultTimeout = 30 * time.Second

// Config 试穿生成服务配置。
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// GenerateRequest 试穿生成请求，garment_images 键为商品 ID 字符串。
type GenerateRequest struct {
	UserID        uint              `json:"user_id"`
	Email         string            `json:"email"`
	GarmentImages map[string]string `json:"garment_images"`
	PersonImage   string            `json:"person_image"`
}

// Client 试穿生成服务客户端。
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建客户端并补全默认值。
func NewClient(cfg Config) *Client {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate 提交试穿生成任务，结果由外部服务异步回传图床。
func (c *Client) Generate(ctx context.Context, request GenerateRequest) error {
	if c.cfg.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrConfigInvalid)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if request.UserID == 0 {
		return fmt.Errorf("%w: user_id is required", ErrConfigInvalid)
	}
	if len(request.GarmentImages) == 0 {
		return fmt.Errorf("%w: garment_images is empty", ErrConfigInvalid)
	}
	if strings.TrimSpace(request.PersonImage) == "" {
		return fmt.Errorf("%w: person_image is required", ErrConfigInvalid)
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: status %d body %s", ErrRequestReject, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
