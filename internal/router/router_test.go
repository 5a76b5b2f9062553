package router

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/icpform/internal/db"
	"github.com/parisxmas/icpform/internal/handler"
	"github.com/parisxmas/icpform/internal/metrics"
	"github.com/parisxmas/icpform/internal/repository"
	"github.com/parisxmas/icpform/internal/service"
)

func newServer(t *testing.T, secret string) *httptest.Server {
	t.Helper()
	log.SetOutput(io.Discard)

	store := db.NewMemoryStore()
	users := repository.NewUserRepo(store)
	authSvc := service.NewAuthService(users, secret)
	require.NoError(t, authSvc.SeedAdmin(context.Background(), "admin@icp.local", "pw"))

	m := metrics.New()
	subSvc := service.NewSubmissionService(repository.NewSubmissionRepo(store, ""), service.WithMetrics(m))
	r := New(secret, m,
		handler.NewSubmissionHandler(subSvc),
		handler.NewAuthHandler(authSvc),
		handler.NewHealthHandler(store),
	)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPublicRoutes(t *testing.T) {
	srv := newServer(t, "")

	resp := do(t, http.MethodPost, srv.URL+"/api/submit-form", "", `{"companyName":"Acme"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = do(t, http.MethodGet, srv.URL+"/api/submissions", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/auth/login", "", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `icpform_submissions_total{result="stored"} 1`)
	assert.Contains(t, string(raw), `route="/api/submit-form"`)
}

func TestProtectedListing(t *testing.T) {
	srv := newServer(t, "secret")

	resp := do(t, http.MethodPost, srv.URL+"/api/submit-form", "", `{"companyName":"Acme"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/submissions", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/auth/login", "", `{"email":"admin@icp.local","password":"pw"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.Data.Token)

	resp = do(t, http.MethodGet, srv.URL+"/api/submissions?limit=1", login.Data.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Data struct {
			Pagination struct {
				Total int `json:"total"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 1, list.Data.Pagination.Total)
}

func TestWrongMethod(t *testing.T) {
	srv := newServer(t, "")
	resp := do(t, http.MethodGet, srv.URL+"/api/submit-form", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
