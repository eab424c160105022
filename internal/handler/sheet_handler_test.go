package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend/internal/sheets"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSheetRouter(client *sheets.Client, cfg SheetProxyConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewSheetHandler(client, cfg).RegisterRoutes(router.Group(""))
	return router
}

func TestSheetProxyUnconfiguredGet(t *testing.T) {
	router := newSheetRouter(sheets.NewClient(""), SheetProxyConfig{})

	for _, path := range []string{"/api/sheets/products", "/api/sheets/orders"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusNotImplemented, w.Code, path)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), path)
		assert.NotEmpty(t, body["error"], path)
	}
}

func TestSheetProxyUnconfiguredPost(t *testing.T) {
	router := newSheetRouter(sheets.NewClient(""), SheetProxyConfig{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sheets/orders", strings.NewReader(`{"action":"add"}`)))

	assert.Equal(t, http.StatusNotImplemented, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "ORDERS_WEBHOOK_URL")
}

func TestSheetProxyOptionsPreflight(t *testing.T) {
	router := newSheetRouter(sheets.NewClient(""), SheetProxyConfig{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/sheets/products", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestSheetProxyMethodNotAllowed(t *testing.T) {
	router := newSheetRouter(sheets.NewClient(""), SheetProxyConfig{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/sheets/products", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Allow"))
}

func TestSheetProxyGetServesRecords(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "gid=11")
		_, _ = w.Write([]byte("id,name,stock,price\nSKU-001,School Shirt,20,150\n"))
	}))
	defer upstream.Close()

	client := sheets.NewClient("sheet-abc")
	client.ExportBase = upstream.URL
	router := newSheetRouter(client, SheetProxyConfig{SheetID: "sheet-abc", ProductsGID: "11"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sheets/products", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "SKU-001", records[0]["id"])
	assert.Equal(t, 20.0, records[0]["stock"])
	assert.Equal(t, 150.0, records[0]["price"])
}

func TestSheetProxyPostForwardsToWebhook(t *testing.T) {
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer webhook.Close()

	router := newSheetRouter(sheets.NewClient(""), SheetProxyConfig{OrdersWebhookURL: webhook.URL})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sheets/orders", strings.NewReader(`{"action":"add"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestSheetProxyUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer upstream.Close()

	client := sheets.NewClient("sheet-abc")
	client.ExportBase = upstream.URL
	router := newSheetRouter(client, SheetProxyConfig{SheetID: "sheet-abc", OrdersGID: "22"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sheets/orders", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}
