// Package siakad is the HTTP client for the SIAku academic-records
// backend: universal login, mahasiswa lookup by NIM, and phone
// bind/unbind for the WhatsApp integration.
package siakad

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/env"
)

var (
	ErrUnauthorized = errors.New("siakad rejected the credentials")
	ErrNotFound     = errors.New("siakad record not found")
	ErrConflict     = errors.New("siakad rejected the request as conflicting")
)

// Account is the backend user record returned by login. RoleData keys
// vary per role: mahasiswa carry a NIM and registered phone, staff
// roles carry a NIDN.
type Account struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Nama     string
	NIM      string
	NIDN     string
	Phone    string
}

// AuthResult bundles the JWT and the resolved account from a login call.
type AuthResult struct {
	Token   string
	Account Account
}

// Mahasiswa is the public lookup record behind GET /api/mahasiswa/nim/:nim.
type Mahasiswa struct {
	NIM            string  `json:"nim"`
	Nama           string  `json:"nama"`
	Jurusan        string  `json:"jurusan"`
	PhoneNumber    string  `json:"phone_number"`
	StatusAkademik string  `json:"status_akademik"`
	Semester       int     `json:"semester"`
	IPK            float64 `json:"ipk"`
	TotalCourses   int     `json:"total_courses"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL: env.GetEnvStringOrDefault("SIAKAD_BASE_URL", "http://localhost:8080"),
		httpClient: &http.Client{
			Timeout: env.GetEnvDurationOrDefault("SIAKAD_HTTP_TIMEOUT", 15*time.Second),
		},
	}
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Token   string          `json:"token"`
}

func (e *envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

type accountData struct {
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Role     string          `json:"role"`
	RoleData json.RawMessage `json:"role_data"`
}

type roleData struct {
	NIM         string `json:"nim"`
	NIDN        string `json:"nidn"`
	Nama        string `json:"nama"`
	PhoneNumber string `json:"phone_number"`
}

// Authenticate performs the universal login. A 401 maps to
// ErrUnauthorized; any other failure is a backend availability problem.
func (c *Client) Authenticate(ctx context.Context, identifier string, password string) (*AuthResult, error) {
	body, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		return nil, err
	}

	resp, env, err := c.post(ctx, "/api/auth/login", body)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, env.text())
	default:
		return nil, fmt.Errorf("siakad login failed with status %d: %s", resp.StatusCode, env.text())
	}

	var data accountData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("decode siakad login response: %w", err)
	}

	account := Account{
		Username: data.Username,
		Email:    data.Email,
		Role:     data.Role,
	}
	if len(data.RoleData) > 0 {
		var details roleData
		if err := json.Unmarshal(data.RoleData, &details); err != nil {
			return nil, fmt.Errorf("decode siakad role data: %w", err)
		}
		account.Nama = details.Nama
		account.NIM = details.NIM
		account.NIDN = details.NIDN
		account.Phone = details.PhoneNumber
	}

	return &AuthResult{Token: env.Token, Account: account}, nil
}

// LookupNIM fetches the public mahasiswa record for a NIM.
func (c *Client) LookupNIM(ctx context.Context, nim string) (*Mahasiswa, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/mahasiswa/nim/"+nim, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("siakad request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode siakad response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, env.text())
	default:
		return nil, fmt.Errorf("siakad lookup failed with status %d: %s", resp.StatusCode, env.text())
	}

	var mahasiswa Mahasiswa
	if err := json.Unmarshal(env.Data, &mahasiswa); err != nil {
		return nil, fmt.Errorf("decode siakad mahasiswa record: %w", err)
	}

	return &mahasiswa, nil
}

// BindPhone associates a phone number with a NIM at the backend. A 409
// means the NIM is already bound elsewhere and maps to ErrConflict with
// the backend's message attached.
func (c *Client) BindPhone(ctx context.Context, nim string, phone string) error {
	body, err := json.Marshal(map[string]string{
		"nim":          nim,
		"phone_number": phone,
	})
	if err != nil {
		return err
	}

	resp, env, err := c.post(ctx, "/api/mahasiswa/bind-phone", body)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, env.text())
	default:
		return fmt.Errorf("siakad bind-phone failed with status %d: %s", resp.StatusCode, env.text())
	}
}

// UnbindPhone clears the phone binding for a NIM. Best-effort at the
// call sites; callers log and move on when this fails.
func (c *Client) UnbindPhone(ctx context.Context, nim string) error {
	body, err := json.Marshal(map[string]string{"nim": nim})
	if err != nil {
		return err
	}

	resp, env, err := c.post(ctx, "/api/mahasiswa/unbind-phone", body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("siakad unbind-phone failed with status %d: %s", resp.StatusCode, env.text())
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, *envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("siakad request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, nil, fmt.Errorf("decode siakad response: %w", err)
	}

	return resp, &env, nil
}
