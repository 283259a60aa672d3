package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cafe-pos/internal/auth"
	"cafe-pos/internal/cache"
	"cafe-pos/internal/config"
	"cafe-pos/internal/database"
	"cafe-pos/internal/kafka"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/order/feed"
	"cafe-pos/internal/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "router-secret"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins: []string{"*"},
			RateLimit:      1000,
			OrderRateLimit: 2,
			Timezone:       "UTC",
		},
		Kafka: config.KafkaConfig{Topics: config.TopicConfig{
			OrderCreated:  "orders.created",
			OrderUpdated:  "orders.updated",
			TicketCreated: "tickets.created",
		}},
		Notifier: config.NotifierConfig{ResyncInterval: time.Hour},
		Receipt:  config.ReceiptConfig{Secret: "qr", QRSize: 128},
	}
}

func setupServer(t *testing.T, checks map[string]server.HealthCheck) http.Handler {
	h, _ := setupServerWithCache(t, checks)
	return h
}

func setupServerWithCache(t *testing.T, checks map[string]server.HealthCheck) (http.Handler, *cache.Local) {
	bunDB, err := database.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	log := logger.NewNopLogger()
	local := cache.NewLocal(time.Minute)
	c := cache.New(local, log, time.Minute)
	t.Cleanup(func() { c.Close() })

	app, err := server.Wire(server.Deps{
		DB:     bunDB,
		Cache:  c,
		Feed:   feed.NewLocal(),
		Events: kafka.NopPublisher{},
		Config: testConfig(),
		Logger: log,
	})
	require.NoError(t, err)
	return server.NewRouter(testConfig().Server, auth.NewHMACVerifier(secret), app.Handlers, checks, log), local
}

func request(t *testing.T, h http.Handler, method, path, body string, user *auth.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		tok, err := auth.IssueToken(secret, *user, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

var (
	teacher = &auth.User{ID: "t1", Name: "Ana", Role: auth.RoleTeacher}
	cashier = &auth.User{ID: "c1", Name: "Luis", Role: auth.RoleCashier}
	admin   = &auth.User{ID: "a1", Name: "Marta", Role: auth.RoleAdmin}
)

func TestRouter_AccessLevels(t *testing.T) {
	h := setupServer(t, nil)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		user   *auth.User
		status int
	}{
		{"menu is public", http.MethodGet, "/api/products", "", nil, http.StatusOK},
		{"categories are public", http.MethodGet, "/api/categories", "", nil, http.StatusOK},
		{"tickets need a token", http.MethodGet, "/api/tickets", "", nil, http.StatusUnauthorized},
		{"teachers are not staff", http.MethodGet, "/api/tickets", "", teacher, http.StatusForbidden},
		{"cashier lists tickets", http.MethodGet, "/api/tickets", "", cashier, http.StatusOK},
		{"cashier reads pending", http.MethodGet, "/api/orders/pending", "", cashier, http.StatusOK},
		{"cashier reads inventory", http.MethodGet, "/api/inventory", "", cashier, http.StatusOK},
		{"cashier reads analytics", http.MethodGet, "/api/analytics/sales", "", cashier, http.StatusOK},
		{"cashier cannot reset counter", http.MethodPost, "/api/counter/reset", `{"startFrom":100,"confirm":true}`, cashier, http.StatusForbidden},
		{"cashier cannot save fiscal data", http.MethodPut, "/api/fiscal-data", `{}`, cashier, http.StatusForbidden},
		{"admin resets counter", http.MethodPost, "/api/counter/reset", `{"startFrom":100,"confirm":true}`, admin, http.StatusOK},
		{"admin reset needs confirm", http.MethodPost, "/api/counter/reset", `{"startFrom":100}`, admin, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := request(t, h, tc.method, tc.path, tc.body, tc.user)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestRouter_OrderSubmissionIsRateLimited(t *testing.T) {
	h := setupServer(t, nil)
	body := `{"teacherName":"Ana","items":[{"productId":"p1","productName":"Latte","quantity":1,"price":"2.80"}],"deliveryType":"pickup"}`

	for i := 0; i < 2; i++ {
		w := request(t, h, http.MethodPost, "/api/orders", body, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w := request(t, h, http.MethodPost, "/api/orders", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// reads are not affected by the submission limit
	w = request(t, h, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	healthy := setupServer(t, map[string]server.HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	w := request(t, healthy, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)

	w = request(t, healthy, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cafe_pos_http_requests_total")

	broken := setupServer(t, map[string]server.HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	w = request(t, broken, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := setupServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "http://classroom.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_AdminFlushesCache(t *testing.T) {
	h, local := setupServerWithCache(t, nil)

	require.Equal(t, http.StatusOK, request(t, h, http.MethodGet, "/api/products", "", nil).Code)
	require.Greater(t, local.Len(), 0, "menu read is cached")

	w := request(t, h, http.MethodPost, "/api/cache/flush", "", cashier)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Greater(t, local.Len(), 0)

	w = request(t, h, http.MethodPost, "/api/cache/flush", "", admin)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, local.Len())
}
