package apiclient

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/salonback/pkg/errors"
	"github.com/salonback/pkg/logger"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Client 外部API客户端, 容忍多种响应包装形态
type Client struct {
	baseURL string
	client  *fasthttp.Client
	timeout time.Duration
	token   string
}

// Option 客户端选项
type Option func(*Client)

// WithTimeout 设置请求超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithToken 设置Bearer令牌
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New 创建外部API客户端
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		timeout: 10 * time.Second,
		client: &fasthttp.Client{
			MaxConnsPerHost: 64,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get 发起GET请求并返回响应体
func (c *Client) Get(path string) ([]byte, int, error) {
	return c.do(fasthttp.MethodGet, path, nil)
}

// Post 发起POST请求并返回响应体
func (c *Client) Post(path string, body interface{}) ([]byte, int, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, 0, errors.Wrap(err, 500, "error al serializar la solicitud")
		}
	}
	return c.do(fasthttp.MethodPost, path, payload)
}

func (c *Client) do(method, path string, body []byte) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.SetBody(body)
	}

	if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
		logger.Warn("fallo de petición externa",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, 0, errors.Wrap(err, 500, "no se pudo contactar el servicio externo")
	}

	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, resp.StatusCode(), nil
}

// FetchList 请求列表并按容忍规则解码
func (c *Client) FetchList(path string, dest interface{}) error {
	body, status, err := c.do(fasthttp.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status >= 400 {
		return errors.BadRequest(DecodeError(body, fmt.Sprintf("el servicio externo respondió %d", status)))
	}
	return DecodeList(body, dest)
}
