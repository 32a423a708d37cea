package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Notice struct {
	ID             string `json:"id"`
	Owner          string `json:"owner"`
	Title          string `json:"title"`
	Type           string `json:"type"`
	Date           string `json:"date"`
	Venue          string `json:"venue"`
	Status         string `json:"status"`
	ResponsesCount int    `json:"responses_count"`
}

// RegisterUser creates a new account with a unique username derived from baseName
func (c *APIClient) RegisterUser(baseName string) (*User, string, error) {
	username := fmt.Sprintf("%s_%s", strings.ToLower(baseName), uuid.NewString()[:8])

	body := map[string]string{
		"username":         username,
		"nickname":         baseName,
		"email":            username + "@simulator.local",
		"password":         "testpassword123",
		"password_confirm": "testpassword123",
	}

	var result AuthResponse
	if err := c.do(http.MethodPost, "/auth/register", body, "", http.StatusCreated, &result); err != nil {
		return nil, "", fmt.Errorf("register: %w", err)
	}
	return &result.User, result.Token, nil
}

// CreateNotice posts a notice owned by the holder of token
func (c *APIClient) CreateNotice(token string, notice map[string]string) (*Notice, error) {
	var created Notice
	if err := c.do(http.MethodPost, "/api/notices", notice, token, http.StatusCreated, &created); err != nil {
		return nil, fmt.Errorf("create notice: %w", err)
	}
	return &created, nil
}

// GetNotice fetches notice details
func (c *APIClient) GetNotice(id string) (*Notice, error) {
	var notice Notice
	if err := c.do(http.MethodGet, "/api/notices/"+id, nil, "", http.StatusOK, &notice); err != nil {
		return nil, fmt.Errorf("get notice: %w", err)
	}
	return &notice, nil
}

// Respond leaves a message on a notice
func (c *APIClient) Respond(token, noticeID, message string) error {
	body := map[string]string{"message": message}
	if err := c.do(http.MethodPost, "/api/notices/"+noticeID+"/respond", body, token, http.StatusCreated, nil); err != nil {
		return fmt.Errorf("respond: %w", err)
	}
	return nil
}

// Complete marks a notice completed
func (c *APIClient) Complete(token, noticeID string) error {
	if err := c.do(http.MethodPost, "/api/notices/"+noticeID+"/complete", nil, token, http.StatusOK, nil); err != nil {
		return fmt.Errorf("complete: %w", err)
	}
	return nil
}

func (c *APIClient) do(method, path string, body interface{}, token string, want int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
