package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"salonsites-backend/internal/dto"
	"salonsites-backend/internal/service"
)

type fakeAutologinService struct {
	tokens map[string]string // sessionID → token
	users  map[string]string // token → userID
}

func (f *fakeAutologinService) IssueToken(ctx context.Context, sessionID, userID string) (string, error) {
	return "issued", nil
}

func (f *fakeAutologinService) TokenForSession(ctx context.Context, sessionID string) (string, error) {
	token, ok := f.tokens[sessionID]
	if !ok {
		return "", service.ErrTokenNotReady
	}
	return token, nil
}

func (f *fakeAutologinService) CreateFallbackToken(ctx context.Context, sessionID string) (string, error) {
	return "", service.ErrTokenNotReady
}

func (f *fakeAutologinService) Exchange(ctx context.Context, token, sessionID string) (*dto.ExchangeResult, error) {
	if _, ok := f.users[token]; !ok {
		return nil, service.ErrInvalidToken
	}
	return &dto.ExchangeResult{
		SessionToken: "jwt-session",
		RedirectURL:  "/onboarding",
	}, nil
}

func TestGetTokenMissingSessionID(t *testing.T) {
	h := NewAuthHandler(&fakeAutologinService{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/token", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.GetToken(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestGetTokenNotReady(t *testing.T) {
	h := NewAuthHandler(&fakeAutologinService{tokens: map[string]string{}})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/token?session_id=cs_1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetToken(c); err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetTokenReady(t *testing.T) {
	h := NewAuthHandler(&fakeAutologinService{
		tokens: map[string]string{"cs_1": "tok-1"},
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/token?session_id=cs_1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetToken(c); err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp dto.TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token != "tok-1" {
		t.Errorf("token = %q, want tok-1", resp.Token)
	}
}

func TestAutologinSetsSessionCookie(t *testing.T) {
	h := NewAuthHandler(&fakeAutologinService{
		users: map[string]string{"tok-1": "u1"},
	})

	e := echo.New()
	body := strings.NewReader(`{"token":"tok-1","session_id":"cs_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/autologin", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Autologin(c); err != nil {
		t.Fatalf("Autologin: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Success     bool   `json:"success"`
		RedirectURL string `json:"redirectUrl"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.RedirectURL != "/onboarding" {
		t.Errorf("resp = %+v", resp)
	}

	cookies := rec.Result().Cookies()
	found := false
	for _, cookie := range cookies {
		if cookie.Name == "salonsites_session" && cookie.Value == "jwt-session" {
			found = true
		}
	}
	if !found {
		t.Error("session cookie not set")
	}
}

func TestAutologinRejectsUsedToken(t *testing.T) {
	h := NewAuthHandler(&fakeAutologinService{users: map[string]string{}})

	e := echo.New()
	body := strings.NewReader(`{"token":"gone","session_id":"cs_1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/autologin", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Autologin(c); err != nil {
		t.Fatalf("Autologin: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
