package client

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

	"users-service/entities"
)

var ErrUnexpectedResponse = errors.New("unexpected response from users service")

// APIError is a "fail" envelope returned by the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("users service returned %d: %s", e.StatusCode, e.Message)
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Ping(ctx context.Context) (string, error) {
	env, err := c.do(ctx, http.MethodGet, "/users/ping", nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// AddUser returns the service message, e.g. "alex@gmail.com was added!".
func (c *Client) AddUser(ctx context.Context, username, email string) (string, error) {
	payload := map[string]string{
		"username": username,
		"email":    email,
	}
	env, err := c.do(ctx, http.MethodPost, "/users", payload)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) GetUser(ctx context.Context, id uint) (entities.UserJSON, error) {
	var user entities.UserJSON
	env, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil)
	if err != nil {
		return user, err
	}
	if err := json.Unmarshal(env.Data, &user); err != nil {
		return user, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return user, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]entities.UserJSON, error) {
	env, err := c.do(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}
	var data struct {
		Users []entities.UserJSON `json:"users"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return data.Users, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach users service: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
	}
	if env.Status != "success" {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}
