package zlagoda

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var ErrEmptyToken = errors.New("server returned an empty token")

func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	var resp tokenResponse
	body := LoginRequest{Login: strings.TrimSpace(login), Password: password}
	if err := c.doSend(ctx, http.MethodPost, "/api/login", nil, body, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return "", ErrEmptyToken
	}
	return resp.Token, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var resp tokenResponse
	if err := c.doSend(ctx, http.MethodPost, "/api/register", nil, req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return "", ErrEmptyToken
	}
	return resp.Token, nil
}

// Account fetches the profile bound to the current bearer credential.
func (c *Client) Account(ctx context.Context) (Employee, error) {
	var resp Employee
	if err := c.doGet(ctx, "/api/account", nil, &resp); err != nil {
		return Employee{}, err
	}
	return resp, nil
}
