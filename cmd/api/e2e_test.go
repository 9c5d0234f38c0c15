package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"huntclub/internal/infrastructure/config"
	httpapi "huntclub/internal/interface/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	cookieName      = "RefreshToken"
	errUnauthorized = "AUTH_UNAUTHORIZED"
	errInvalidCreds = "AUTH_INVALID_CREDENTIALS"
)

type apiResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
	Error       string `json:"error"`
	ErrorCode   string `json:"error_code"`
}

func newTestServer(t *testing.T) (*httpapi.Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{Auth: config.AuthConfig{Secret: "test-secret", Issuer: "huntclub", Audience: "huntclub-web"}}
	srv, err := httpapi.NewServer(cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

// TestJonasSessionLifecycle 覆蓋登入、session 檢查、refresh 輪替、重播拒絕與登出。
func TestJonasSessionLifecycle(t *testing.T) {
	srv, ts := newTestServer(t)

	res, original := login(t, ts, "jonas", "password123", http.StatusOK)
	if original == nil {
		t.Fatal("login must set the refresh cookie")
	}

	// access token claims
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(res.AccessToken, claims); err != nil {
		t.Fatalf("decode access token: %v", err)
	}
	jonas, err := srv.Store().FindByName(t.Context(), "jonas")
	if err != nil {
		t.Fatal(err)
	}
	if claims["sub"] != jonas.ID {
		t.Errorf("expected sub %s, got %v", jonas.ID, claims["sub"])
	}
	roles, _ := claims["role"].([]interface{})
	if len(roles) != 2 || roles[0] != "admin" || roles[1] != "hunt_leader" {
		t.Errorf("unexpected role claims: %v", claims["role"])
	}

	if code, _, _ := call(t, ts, http.MethodGet, "/api/session", original); code != http.StatusOK {
		t.Fatalf("session expected 200, got %d", code)
	}

	code, body, rotated := call(t, ts, http.MethodPost, "/api/accessToken", original)
	if code != http.StatusOK {
		t.Fatalf("refresh expected 200, got %d", code)
	}
	if body.AccessToken == "" {
		t.Error("refresh must return an access token")
	}
	if rotated == nil || rotated.Value == original.Value {
		t.Fatal("refresh must set a different cookie")
	}

	code, body, _ = call(t, ts, http.MethodPost, "/api/accessToken", original)
	if code != http.StatusUnauthorized || body.ErrorCode != errUnauthorized {
		t.Fatalf("replay expected 401 %s, got %d %s", errUnauthorized, code, body.ErrorCode)
	}

	code, _, cleared := call(t, ts, http.MethodPost, "/api/logout", rotated)
	if code != http.StatusOK {
		t.Fatalf("logout expected 200, got %d", code)
	}
	if cleared == nil || cleared.Value != "" {
		t.Error("logout must clear the cookie")
	}

	if code, _, _ := call(t, ts, http.MethodGet, "/api/session", rotated); code != http.StatusUnauthorized {
		t.Fatalf("session after logout expected 401, got %d", code)
	}
}

// TestAuthErrors 檢查錯誤密碼與未帶 cookie 的行為。
func TestAuthErrors(t *testing.T) {
	_, ts := newTestServer(t)

	res, cookie := login(t, ts, "jonas", "bad-password", http.StatusUnprocessableEntity)
	if res.ErrorCode != errInvalidCreds || cookie != nil {
		t.Errorf("unexpected failure response: %+v cookie=%v", res, cookie)
	}

	if code, body, _ := call(t, ts, http.MethodGet, "/api/session", nil); code != http.StatusUnauthorized || body.Success {
		t.Errorf("expected 401, got %d", code)
	}
	if code, _, _ := call(t, ts, http.MethodPost, "/api/logout", nil); code != http.StatusOK {
		t.Errorf("logout without cookie expected 200, got %d", code)
	}
}

func login(t *testing.T, ts *httptest.Server, userName, password string, wantStatus int) (apiResponse, *http.Cookie) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"userName": userName, "password": password})
	resp, err := http.Post(ts.URL+"/api/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("login %s expected %d, got %d", userName, wantStatus, resp.StatusCode)
	}
	var out apiResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return out, findCookie(resp)
}

// call 手動帶 cookie；Secure cookie 不會由 client jar 經 http 送出。
func call(t *testing.T, ts *httptest.Server, method, path string, cookie *http.Cookie) (int, apiResponse, *http.Cookie) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cookie != nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out apiResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out, findCookie(resp)
}

func findCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}
