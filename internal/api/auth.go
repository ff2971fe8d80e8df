package api

import (
	"context"
	"fmt"
	"net/http"
)

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type messageResponse struct {
	Msg string `json:"msg"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	var out loginResponse
	r := c.request(ctx, "").SetBody(creds).SetResult(&out)
	if _, err := c.do(r, http.MethodPost, "/login"); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", &Error{Kind: KindTransport, Op: "POST /login", Err: fmt.Errorf("response carries no access_token")}
	}
	return out.AccessToken, nil
}

// Register creates an account and returns the server message.
func (c *Client) Register(ctx context.Context, creds Credentials) (string, error) {
	var out messageResponse
	r := c.request(ctx, "").SetBody(creds).SetResult(&out)
	if _, err := c.do(r, http.MethodPost, "/register"); err != nil {
		return "", err
	}
	return out.Msg, nil
}
