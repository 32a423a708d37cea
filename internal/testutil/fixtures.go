package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

// PNGBytes is a minimal payload that content sniffing reports as image/png.
var PNGBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// UserResponse matches the API user representation
type UserResponse struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	Nickname     string          `json:"nickname"`
	ProfileImage *string         `json:"profile_image"`
	Profile      json.RawMessage `json:"profile"`
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// NoticeResponse matches the API notice representation
type NoticeResponse struct {
	ID             string             `json:"id"`
	Owner          string             `json:"owner"`
	OwnerNickname  string             `json:"owner_nickname"`
	OwnerEmail     string             `json:"owner_email"`
	Title          string             `json:"title"`
	Type           string             `json:"type"`
	Date           string             `json:"date"`
	Venue          string             `json:"venue"`
	Contact        string             `json:"contact"`
	Description    string             `json:"description"`
	Image          *string            `json:"image"`
	Status         string             `json:"status"`
	ResponsesCount int                `json:"responses_count"`
	Responses      []ResponseResponse `json:"responses"`
}

// ResponseResponse matches the API notice response representation
type ResponseResponse struct {
	ID                string `json:"id"`
	Notice            string `json:"notice"`
	Responder         string `json:"responder"`
	ResponderNickname string `json:"responder_nickname"`
	ResponderEmail    string `json:"responder_email"`
	Message           string `json:"message"`
}

// UserBuilder registers test users through the API with a builder pattern
type UserBuilder struct {
	username string
	email    string
	nickname string
	password string
}

// NewUserBuilder creates a new UserBuilder with unique default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.NewString()[:8]
	return &UserBuilder{
		username: "testuser_" + suffix,
		email:    fmt.Sprintf("testuser_%s@test.com", suffix),
		password: "testpassword123",
	}
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithNickname sets the nickname
func (b *UserBuilder) WithNickname(nickname string) *UserBuilder {
	b.nickname = nickname
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Password returns the plaintext password the builder registers with
func (b *UserBuilder) Password() string {
	return b.password
}

// Email returns the email the builder registers with
func (b *UserBuilder) Email() string {
	return b.email
}

// RegisterBody returns the JSON registration payload
func (b *UserBuilder) RegisterBody() map[string]string {
	return map[string]string{
		"username":         b.username,
		"email":            b.email,
		"nickname":         b.nickname,
		"password":         b.password,
		"password_confirm": b.password,
	}
}

// BuildAndAuthenticate registers the user via the API and returns the auth response
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) *AuthResponse {
	t.Helper()

	resp := ts.PostJSON(t, "/auth/register", "", b.RegisterBody())
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status code registering %s: %d: %s", b.username, resp.StatusCode, body)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return &authResp
}

// NoticeBuilder creates test notices through the API with a builder pattern
type NoticeBuilder struct {
	fields map[string]string
	image  []byte
}

// NewNoticeBuilder creates a lost notice with default values
func NewNoticeBuilder() *NoticeBuilder {
	return &NoticeBuilder{
		fields: map[string]string{
			"title":       "Lost wallet",
			"type":        "lost",
			"date":        "2024-05-01",
			"venue":       "Library",
			"contact":     "555-0100",
			"description": "Brown leather wallet",
		},
	}
}

// With sets a notice field
func (b *NoticeBuilder) With(field, value string) *NoticeBuilder {
	b.fields[field] = value
	return b
}

// WithImage attaches an image, switching the request to multipart
func (b *NoticeBuilder) WithImage(data []byte) *NoticeBuilder {
	b.image = data
	return b
}

// Build posts the notice as the owner of token and returns it
func (b *NoticeBuilder) Build(t *testing.T, ts *TestServer, token string) *NoticeResponse {
	t.Helper()

	var resp *http.Response
	if b.image != nil {
		resp = ts.PostMultipart(t, "/api/notices", token, b.fields, "image", "notice.png", b.image)
	} else {
		resp = ts.PostJSON(t, "/api/notices", token, b.fields)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status code creating notice: %d: %s", resp.StatusCode, body)
	}

	var notice NoticeResponse
	if err := json.NewDecoder(resp.Body).Decode(&notice); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return &notice
}

// Do sends a request with an optional bearer token
func (ts *TestServer) Do(t *testing.T, method, path, token, contentType string, body io.Reader) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL(path), body)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

// Get sends a GET request
func (ts *TestServer) Get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	return ts.Do(t, http.MethodGet, path, token, "", nil)
}

// PostJSON sends a POST request with a JSON body
func (ts *TestServer) PostJSON(t *testing.T, path, token string, v any) *http.Response {
	t.Helper()
	return ts.SendJSON(t, http.MethodPost, path, token, v)
}

// SendJSON sends a request with a JSON body
func (ts *TestServer) SendJSON(t *testing.T, method, path, token string, v any) *http.Response {
	t.Helper()

	var body io.Reader
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		body = bytes.NewReader(data)
	}
	return ts.Do(t, method, path, token, "application/json", body)
}

// PostMultipart sends a POST request with form fields and one file
func (ts *TestServer) PostMultipart(t *testing.T, path, token string, fields map[string]string, fileField, filename string, file []byte) *http.Response {
	t.Helper()
	return ts.SendMultipart(t, http.MethodPost, path, token, fields, fileField, filename, file)
}

// SendMultipart sends a multipart request. fileField is skipped when empty.
func (ts *TestServer) SendMultipart(t *testing.T, method, path, token string, fields map[string]string, fileField, filename string, file []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %s: %v", k, err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := fw.Write(file); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	return ts.Do(t, method, path, token, mw.FormDataContentType(), &buf)
}
