package client

import (
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/maskapp/mask/pkg/logger"
)

const userAgent = "mask-cli/0.1.0"

// AdminKeyHeader carries the shared admin key when the server runs in key mode
const AdminKeyHeader = "x-admin-key"

// Credentials supplies per-request auth. The session implements it; a nil
// source sends anonymous requests.
type Credentials interface {
	Token() string
	AdminKey() string
}

// Client is the HTTP client shared by every API call
type Client struct {
	http  *resty.Client
	creds Credentials
}

// New builds a client for baseURL. creds is read on every request so a
// login or logout takes effect immediately.
func New(baseURL string, timeout time.Duration, creds Credentials) *Client {
	c := &Client{http: resty.New(), creds: creds}

	c.http.SetBaseURL(baseURL)
	c.http.SetTimeout(timeout)
	c.http.SetHeader("User-Agent", userAgent)
	c.http.SetHeader("Accept", "application/json")
	c.http.JSONMarshal = jsoniter.ConfigCompatibleWithStandardLibrary.Marshal
	c.http.JSONUnmarshal = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal

	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if c.creds != nil {
			if token := c.creds.Token(); token != "" {
				req.SetAuthToken(token)
			}
			if key := c.creds.AdminKey(); key != "" {
				req.SetHeader(AdminKeyHeader, key)
			}
		}
		logger.Debug("HTTP request", "method", req.Method, "url", req.URL)
		return nil
	})

	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP response",
			"method", resp.Request.Method,
			"url", resp.Request.URL,
			"status", resp.StatusCode(),
			"elapsed", resp.Time(),
		)
		return nil
	})

	return c
}

// SetCredentials swaps the credential source, e.g. after login
func (c *Client) SetCredentials(creds Credentials) {
	c.creds = creds
}

// R starts a request
func (c *Client) R() *resty.Request {
	return c.http.R()
}

// BaseURL is the API root requests are resolved against
func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

// Resty exposes the underlying client for tests and uploads
func (c *Client) Resty() *resty.Client {
	return c.http
}
