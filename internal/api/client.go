// Package api is the gateway to the todo REST API. Every call either returns
// the decoded payload or an *Error; nothing is retried.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const HeaderRequestID = "X-Request-ID"

// Credentials is the body of /login and /register.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type errorBody struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b *errorBody) text() string {
	switch {
	case b == nil:
		return ""
	case b.Msg != "":
		return b.Msg
	case b.Message != "":
		return b.Message
	}
	return b.Error
}

// Client issues the REST calls against one base URL.
type Client struct {
	rest *resty.Client
}

// New builds a Client for baseURL. No timeout is set; transport defaults apply.
func New(baseURL string) *Client {
	return NewWithClient(resty.New(), baseURL)
}

// NewWithClient lets callers supply a preconfigured resty client.
func NewWithClient(rc *resty.Client, baseURL string) *Client {
	rc.SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			r.SetHeader(HeaderRequestID, uuid.NewString())
			return nil
		}).
		OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			logrus.WithFields(logrus.Fields{
				"method":     resp.Request.Method,
				"url":        resp.Request.URL,
				"status":     resp.StatusCode(),
				"request_id": resp.Request.Header.Get(HeaderRequestID),
				"elapsed":    resp.Time(),
			}).Debugln("API response")
			return nil
		})
	return &Client{rest: rc}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.rest.BaseURL }

func (c *Client) request(ctx context.Context, token string) *resty.Request {
	r := c.rest.R().SetContext(ctx).SetError(&errorBody{})
	if token != "" {
		r.SetAuthToken(token)
	}
	return r
}

// do executes r and maps the outcome onto *Error.
func (c *Client) do(r *resty.Request, method, path string) (*resty.Response, error) {
	op := method + " " + path
	resp, err := r.Execute(method, path)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"op":         op,
			"request_id": r.Header.Get(HeaderRequestID),
		}).WithError(err).Debugln("API request failed")
		return resp, &Error{Kind: KindTransport, Op: op, Err: err}
	}
	if !resp.IsSuccess() {
		msg := ""
		if body, ok := resp.Error().(*errorBody); ok {
			msg = body.text()
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return resp, &Error{Kind: KindHTTP, Op: op, Status: resp.StatusCode(), Msg: msg}
	}
	return resp, nil
}
