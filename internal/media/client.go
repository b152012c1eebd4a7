package media

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("media config invalid")
	ErrRequestFailed   = errors.New("media request failed")
	ErrResponseInvalid = errors.New("media response invalid")
)

const defaultTimeout = 10 * time.Second

// Config 图床 API 配置。
type Config struct {
	APIBaseURL string
	CloudName  string
	APIKey     string
	APISecret  string
	Timeout    time.Duration
}

// Resource 图床资源点查结果。
type Resource struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int64  `json:"bytes"`
}

// Client 图床 API 客户端。
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建客户端并补全默认值。
func NewClient(cfg Config) *Client {
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.CloudName = strings.TrimSpace(cfg.CloudName)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.APISecret = strings.TrimSpace(cfg.APISecret)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) validateConfig() error {
	if c.cfg.APIBaseURL == "" {
		return fmt.Errorf("%w: api_base is required", ErrConfigInvalid)
	}
	if c.cfg.CloudName == "" {
		return fmt.Errorf("%w: cloud_name is required", ErrConfigInvalid)
	}
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return fmt.Errorf("%w: api_key and api_secret are required", ErrConfigInvalid)
	}
	return nil
}

// TryOnPublicID 按用户、商品、序号生成确定性资源 ID。
func TryOnPublicID(folder string, userID, productID uint, index int) string {
	return fmt.Sprintf("%s/u%d/p%d/%d", strings.Trim(folder, "/"), userID, productID, index)
}

// GetResource 按 public ID 点查资源，404 视为不存在返回 (nil, nil)。
func (c *Client) GetResource(ctx context.Context, publicID string) (*Resource, error) {
	if err := c.validateConfig(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, fmt.Errorf("%w: public_id is required", ErrConfigInvalid)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/resources/image/upload/%s",
		c.cfg.APIBaseURL, url.PathEscape(c.cfg.CloudName), escapePublicID(publicID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: get resource status %d", ErrResponseInvalid, resp.StatusCode)
	}

	var resource Resource
	if err := json.Unmarshal(body, &resource); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	if resource.SecureURL == "" {
		return nil, fmt.Errorf("%w: missing secure_url", ErrResponseInvalid)
	}
	return &resource, nil
}

// Upload 上传图片到指定 public ID，已存在则覆盖。
func (c *Client) Upload(ctx context.Context, publicID string, data []byte) (*Resource, error) {
	if err := c.validateConfig(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, fmt.Errorf("%w: public_id is required", ErrConfigInvalid)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrConfigInvalid)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	params := map[string]string{
		"public_id": publicID,
		"overwrite": "true",
		"timestamp": timestamp,
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range params {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("%w: build form failed", ErrRequestFailed)
		}
	}
	if err := writer.WriteField("api_key", c.cfg.APIKey); err != nil {
		return nil, fmt.Errorf("%w: build form failed", ErrRequestFailed)
	}
	if err := writer.WriteField("signature", signParams(params, c.cfg.APISecret)); err != nil {
		return nil, fmt.Errorf("%w: build form failed", ErrRequestFailed)
	}
	part, err := writer.CreateFormFile("file", "upload")
	if err != nil {
		return nil, fmt.Errorf("%w: build form failed", ErrRequestFailed)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("%w: build form failed", ErrRequestFailed)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: build form failed", ErrRequestFailed)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", c.cfg.APIBaseURL, url.PathEscape(c.cfg.CloudName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: upload status %d", ErrResponseInvalid, resp.StatusCode)
	}

	var resource Resource
	if err := json.Unmarshal(body, &resource); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	if resource.SecureURL == "" {
		return nil, fmt.Errorf("%w: missing secure_url", ErrResponseInvalid)
	}
	return &resource, nil
}

// 签名：参数按 key 升序拼接后加 secret 取 SHA-1
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	payload := strings.Join(pairs, "&") + secret
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// public ID 内的斜杠是路径分隔符，逐段转义
func escapePublicID(publicID string) string {
	segments := strings.Split(publicID, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
