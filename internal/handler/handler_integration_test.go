package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/handler/dto"
	"github.com/taskdeck/taskdeck/internal/middleware"
	"github.com/taskdeck/taskdeck/internal/repository"
	"github.com/taskdeck/taskdeck/internal/service"
	"github.com/taskdeck/taskdeck/internal/testutil"
)

// testAPI is a trimmed router with the real auth middleware chain, for
// asserting the HTTP error contract end to end.
type testAPI struct {
	router http.Handler
	users  *service.UserService
}

func setupAPI(t *testing.T) (context.Context, *testAPI) {
	t.Helper()

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	repo, err := repository.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() { _ = unlock() })

	if err := testutil.ResetSchema(ctx, repo.Pool(), repo); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	c, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer := auth.NewTokenIssuer("integration-test-secret-0123456789", 30*time.Minute)
	users := service.NewUserService(repo, c, issuer, nil)
	todos := service.NewTodoService(repo, nil, nil)

	authHandler := NewAuthHandler(users, logger)
	userHandler := NewUserHandler(users, todos, logger)

	authCfg := middleware.AuthConfig{
		Logger:     logger,
		Issuer:     issuer,
		Repository: repo,
		Cache:      c,
	}

	r := chi.NewRouter()
	r.Post("/token", authHandler.Token)
	r.Post("/users/", userHandler.Register)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))

		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireActive())

			r.Get("/users/me/", userHandler.Me)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Get("/users/", userHandler.List)
			})
		})
	})

	return ctx, &testAPI{router: r, users: users}
}

func (a *testAPI) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) register(t *testing.T, email, password string) dto.UserResponse {
	t.Helper()

	body := `{"email":"` + email + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := a.serve(req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}

	var user dto.UserResponse
	if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return user
}

func (a *testAPI) login(t *testing.T, email, password string) string {
	t.Helper()

	rec := a.serve(tokenRequest(email, password))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	var token dto.TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&token); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	return token.AccessToken
}

func tokenRequest(email, password string) *http.Request {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func bearerRequest(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var body dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestTokenEndpoint_BadCredentials(t *testing.T) {
	_, api := setupAPI(t)

	api.register(t, "alice@example.com", "supersecret")

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "alice@example.com", "wrong-password"},
		{"unknown email", "ghost@example.com", "supersecret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.serve(tokenRequest(tt.email, tt.password))

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
				t.Errorf("WWW-Authenticate = %q, want Bearer", got)
			}
			if body := decodeError(t, rec); body.Code != "INVALID_CREDENTIALS" {
				t.Errorf("code = %q, want INVALID_CREDENTIALS", body.Code)
			}
		})
	}
}

func TestRegister_DuplicateEmailMapsTo400(t *testing.T) {
	_, api := setupAPI(t)

	api.register(t, "dup@example.com", "supersecret")

	body := `{"email":"dup@example.com","password":"supersecret"}`
	req := httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := api.serve(req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if errBody := decodeError(t, rec); errBody.Code != "EMAIL_TAKEN" {
		t.Errorf("code = %q, want EMAIL_TAKEN", errBody.Code)
	}
}

func TestAdminRoutes_RequirePermissions(t *testing.T) {
	_, api := setupAPI(t)

	api.register(t, "plain@example.com", "supersecret")
	token := api.login(t, "plain@example.com", "supersecret")

	// No token at all
	rec := api.serve(httptest.NewRequest(http.MethodGet, "/users/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("WWW-Authenticate = %q, want Bearer", got)
	}

	// Authenticated but not admin
	rec = api.serve(bearerRequest(http.MethodGet, "/users/", token))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "Not enough permissions" {
		t.Errorf("error = %q, want \"Not enough permissions\"", body.Error)
	}
}

func TestLogout_WorksForDeactivatedAccount(t *testing.T) {
	ctx, api := setupAPI(t)

	user := api.register(t, "benched@example.com", "supersecret")
	token := api.login(t, "benched@example.com", "supersecret")

	inactive := false
	if _, err := api.users.UpdateUser(ctx, user.ID, service.UpdateUserInput{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	// Deactivated accounts are locked out of the API
	rec := api.serve(bearerRequest(http.MethodGet, "/users/me/", token))
	if rec.Code != http.StatusForbidden {
		t.Errorf("me status = %d, want 403", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "Inactive user" {
		t.Errorf("error = %q, want \"Inactive user\"", body.Error)
	}

	// but can still revoke their own token
	rec = api.serve(bearerRequest(http.MethodPost, "/logout", token))
	if rec.Code != http.StatusNoContent {
		t.Errorf("logout status = %d, want 204", rec.Code)
	}

	// and the revoked token is dead everywhere afterwards
	rec = api.serve(bearerRequest(http.MethodPost, "/logout", token))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("revoked-token logout status = %d, want 401", rec.Code)
	}
}
