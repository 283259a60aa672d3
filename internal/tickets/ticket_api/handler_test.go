package ticket_api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cafe-pos/internal/auth"
	"cafe-pos/internal/database"
	"cafe-pos/internal/kafka"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"
	"cafe-pos/internal/tickets/db"
	"cafe-pos/internal/tickets/receipt"
	tickets "cafe-pos/internal/tickets/service"
	"cafe-pos/internal/tickets/ticket_api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Field   string          `json:"field"`
}

func setupRouter(t *testing.T, role auth.Role) http.Handler {
	bunDB, err := database.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	store := &db.DB{Bun: bunDB}
	log := logger.NewNopLogger()
	counter := tickets.NewCounter(store, log, false)
	svc := tickets.NewTicketService(store, counter, nil, kafka.NopPublisher{}, "cafe.tickets.created", log)
	h := ticket_api.NewHandler(svc, counter, receipt.NewQRGenerator("secret", 128), log)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.WithUser(req.Context(), auth.User{ID: "u1", Name: "Marta", Role: role})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/api", func(r chi.Router) {
		h.Routes(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleAdmin))
			h.AdminRoutes(r)
		})
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	r := setupRouter(t, auth.RoleCashier)

	w := do(t, r, http.MethodPost, "/api/counter/initialize", `{"startFrom": 99}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/tickets", `{"items":[
		{"productId":"espresso","productName":"Espresso","price":1.80,"quantity":3},
		{"productId":"croissant","productName":"Croissant","price":"2.10","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var ticket models.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	assert.Equal(t, int64(100), ticket.TicketNumber)
	assert.Equal(t, "7.50", ticket.Total.StringFixed(2))
	assert.Equal(t, "Marta", ticket.UserName)

	w = do(t, r, http.MethodGet, "/api/tickets/"+ticket.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/tickets/"+ticket.ID+"/qr", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = do(t, r, http.MethodGet, "/api/tickets", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var list []models.Ticket
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	w = do(t, r, http.MethodGet, "/api/tickets/count", "")
	assert.JSONEq(t, `{"total_count":1}`, w.Body.String())

	w = do(t, r, http.MethodDelete, "/api/tickets/"+ticket.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, http.MethodGet, "/api/tickets/"+ticket.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTicket_ValidationError(t *testing.T) {
	r := setupRouter(t, auth.RoleCashier)

	w := do(t, r, http.MethodPost, "/api/tickets", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "items", env.Field)
}

func TestCreateTicket_CounterMissingIsUnavailable(t *testing.T) {
	r := setupRouter(t, auth.RoleCashier)

	w := do(t, r, http.MethodPost, "/api/tickets", `{"items":[{"productId":"p","productName":"Té","price":1.5,"quantity":1}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestResetCounter(t *testing.T) {
	cashier := setupRouter(t, auth.RoleCashier)
	w := do(t, cashier, http.MethodPost, "/api/counter/reset", `{"startFrom": 5, "confirm": true}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := setupRouter(t, auth.RoleAdmin)
	w = do(t, admin, http.MethodPost, "/api/counter/reset", `{"startFrom": 5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, admin, http.MethodPost, "/api/counter/reset", `{"startFrom": 5, "confirm": true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ticketNumber":5}`, w.Body.String())
}

func TestExportTickets(t *testing.T) {
	r := setupRouter(t, auth.RoleAdmin)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/counter/initialize", "").Code)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/tickets",
		`{"items":[{"productId":"latte","productName":"Latte","price":2.8,"quantity":2}]}`).Code)

	w := do(t, r, http.MethodGet, "/api/tickets/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment;"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Tickets")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[1][0])

	lines, err := f.GetRows("Lines")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Latte", lines[1][1])
}
