package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"authapi/internal/models"
	"authapi/internal/service"
	"authapi/internal/token"
)

type stubAuthService struct {
	signupParams service.SignupParams
	signupUser   *models.User
	signupErr    error
	signinEmail  string
	signinUser   *models.User
	signinErr    error
}

func (s *stubAuthService) Signup(_ context.Context, params service.SignupParams) (*models.User, error) {
	s.signupParams = params
	return s.signupUser, s.signupErr
}

func (s *stubAuthService) Signin(_ context.Context, email, _ string) (*models.User, error) {
	s.signinEmail = email
	return s.signinUser, s.signinErr
}

func newTestRouter(t *testing.T, stub *stubAuthService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer, err := token.NewIssuer("test-secret")
	if err != nil {
		t.Fatalf("NewIssuer error: %v", err)
	}

	h := NewAuthHandler(stub, issuer, zap.NewNop())
	router := gin.New()
	router.POST("/api/auth/sign-up", h.Signup)
	router.POST("/api/auth/sign-in", h.Signin)
	router.POST("/api/auth/sign-out", h.Signout)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestSignupSuccess(t *testing.T) {
	stub := &stubAuthService{
		signupUser: &models.User{ID: 1, Email: "ann@x.com", Name: "Ann", Role: models.RoleUser, Password: "$2a$10$digest"},
	}
	router := newTestRouter(t, stub)

	w := postJSON(router, "/api/auth/sign-up", `{"name":"Ann","email":"ANN@x.com","password":"secret1"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", w.Code, w.Body.String())
	}

	// Email is normalized before it reaches the service; role defaults.
	if stub.signupParams.Email != "ann@x.com" {
		t.Fatalf("service received email %q, want normalized %q", stub.signupParams.Email, "ann@x.com")
	}
	if stub.signupParams.Role != models.RoleUser {
		t.Fatalf("service received role %q, want default %q", stub.signupParams.Role, models.RoleUser)
	}

	var resp struct {
		Message string         `json:"message"`
		User    map[string]any `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Message != "User created successfully" {
		t.Fatalf("message = %q", resp.Message)
	}
	if _, ok := resp.User["password"]; ok {
		t.Fatal("response user must not contain a password field")
	}
	if strings.Contains(w.Body.String(), "digest") {
		t.Fatalf("response leaks the password hash: %s", w.Body.String())
	}

	cookie := w.Header().Get("Set-Cookie")
	if !strings.HasPrefix(cookie, "token=") || !strings.Contains(cookie, "HttpOnly") {
		t.Fatalf("missing HTTP-only token cookie, got: %q", cookie)
	}
}

func TestSignupValidationError(t *testing.T) {
	router := newTestRouter(t, &stubAuthService{})

	w := postJSON(router, "/api/auth/sign-up", `{"name":"A","email":"nope","password":"abc"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error != "Validation error" {
		t.Fatalf("error = %q", resp.Error)
	}
	for _, want := range []string{"name: ", "email: ", "password: "} {
		if !strings.Contains(resp.Details, want) {
			t.Fatalf("details missing %q: %q", want, resp.Details)
		}
	}
}

func TestSignupMalformedJSON(t *testing.T) {
	router := newTestRouter(t, &stubAuthService{})

	w := postJSON(router, "/api/auth/sign-up", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSignupConflict(t *testing.T) {
	stub := &stubAuthService{signupErr: service.ErrUserAlreadyExists}
	router := newTestRouter(t, stub)

	w := postJSON(router, "/api/auth/sign-up", `{"name":"Ann","email":"ann@x.com","password":"secret1"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body: %s", w.Code, w.Body.String())
	}
	// Generic message only; nothing about which field matched.
	if !strings.Contains(w.Body.String(), "already exists") {
		t.Fatalf("unexpected conflict body: %s", w.Body.String())
	}
}

func TestSignupInternalErrorIsOpaque(t *testing.T) {
	stub := &stubAuthService{signupErr: context.DeadlineExceeded}
	router := newTestRouter(t, stub)

	w := postJSON(router, "/api/auth/sign-up", `{"name":"Ann","email":"ann@x.com","password":"secret1"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if w.Body.String() != `{"error":"Internal server error"}` {
		t.Fatalf("internal detail leaked: %s", w.Body.String())
	}
}

func TestSigninInvalidCredentialsAreIndistinguishable(t *testing.T) {
	stub := &stubAuthService{signinErr: service.ErrInvalidCredentials}
	router := newTestRouter(t, stub)

	// Unknown email and wrong password both surface as ErrInvalidCredentials
	// from the service; the two responses must be byte-identical.
	unknown := postJSON(router, "/api/auth/sign-in", `{"email":"nobody@x.com","password":"secret1"}`)
	wrongPass := postJSON(router, "/api/auth/sign-in", `{"email":"ann@x.com","password":"bad-secret"}`)

	if unknown.Code != http.StatusUnauthorized || wrongPass.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want 401, 401", unknown.Code, wrongPass.Code)
	}
	if !bytes.Equal(unknown.Body.Bytes(), wrongPass.Body.Bytes()) {
		t.Fatalf("bodies differ: %q vs %q", unknown.Body.String(), wrongPass.Body.String())
	}
}

func TestSigninSuccessSetsCookie(t *testing.T) {
	stub := &stubAuthService{
		signinUser: &models.User{ID: 7, Email: "ann@x.com", Name: "Ann", Role: models.RoleAdmin},
	}
	router := newTestRouter(t, stub)

	w := postJSON(router, "/api/auth/sign-in", `{"email":"ANN@x.com","password":"secret1"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if stub.signinEmail != "ann@x.com" {
		t.Fatalf("service received email %q, want normalized", stub.signinEmail)
	}
	if cookie := w.Header().Get("Set-Cookie"); !strings.HasPrefix(cookie, "token=") {
		t.Fatalf("missing token cookie: %q", cookie)
	}
}

func TestSignoutClearsCookieAndIsIdempotent(t *testing.T) {
	router := newTestRouter(t, &stubAuthService{})

	for i := 0; i < 2; i++ {
		w := postJSON(router, "/api/auth/sign-out", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		cookie := w.Header().Get("Set-Cookie")
		if !strings.HasPrefix(cookie, "token=;") && !strings.HasPrefix(cookie, "token=\"\"") {
			t.Fatalf("cookie not cleared: %q", cookie)
		}
		if !strings.Contains(cookie, "Max-Age=0") {
			t.Fatalf("cookie not expired: %q", cookie)
		}
	}
}
