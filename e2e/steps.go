// Package e2e drives a running kitties server over HTTP.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"

	"kitties/e2e/steps/common"
	"kitties/e2e/steps/kitty"
)

// TestContext holds per-scenario state shared by the step packages.
type TestContext struct {
	BaseURL    string
	SigningKey string
	Issuer     string
	Audience   string
	HTTPClient *http.Client

	accounts   map[string]string
	token      string
	lastStatus int
	lastBody   []byte
}

// NewTestContext reads its settings from the environment.
func NewTestContext() *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(envOr("E2E_BASE_URL", "http://localhost:8080"), "/"),
		SigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Issuer:     envOr("JWT_ISSUER", "kitties"),
		Audience:   envOr("JWT_AUDIENCE", "kitties-api"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		accounts: map[string]string{
			"alice": "0x0a" + strings.Repeat("00", 31),
			"bob":   "0x0b" + strings.Repeat("00", 31),
		},
	}
}

// Reset clears state between scenarios.
func (tc *TestContext) Reset() {
	tc.token = ""
	tc.lastStatus = 0
	tc.lastBody = nil
}

func (tc *TestContext) Account(name string) (string, error) {
	account, ok := tc.accounts[name]
	if !ok {
		return "", fmt.Errorf("unknown account %q", name)
	}
	return account, nil
}

// AuthenticateAs mints a caller token for the named account.
func (tc *TestContext) AuthenticateAs(name string) error {
	account, err := tc.Account(name)
	if err != nil {
		return err
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   account,
		Issuer:    tc.Issuer,
		Audience:  []string{tc.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
	})
	signed, err := token.SignedString([]byte(tc.SigningKey))
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	tc.token = signed
	return nil
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}
	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

// LastJSON decodes the last response body as a JSON object.
func (tc *TestContext) LastJSON() (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(tc.lastBody, &out); err != nil {
		return nil, fmt.Errorf("decode response %q: %w", string(tc.lastBody), err)
	}
	return out, nil
}

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	kitty.RegisterSteps(ctx, tc)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
