package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRecords(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte("id,stock\nSKU-001,7\n"))
	}))
	defer srv.Close()

	client := NewClient("sheet-abc")
	client.ExportBase = srv.URL

	records, err := client.FetchRecords(context.Background(), "42", []string{"stock"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 7.0, records[0]["stock"])
	assert.Equal(t, "/spreadsheets/d/sheet-abc/export", gotPath)
	assert.Equal(t, "format=csv&gid=42", gotQuery)
}

func TestFetchRecordsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient("sheet-abc")
	client.ExportBase = srv.URL

	_, err := client.FetchRecords(context.Background(), "42", nil)
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.Status)
}

func TestForwardWriteRelaysJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"success":true,"row":12}`))
	}))
	defer srv.Close()

	client := NewClient("")
	data, err := client.ForwardWrite(context.Background(), srv.URL, []byte(`{"action":"add"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"row":12}`, string(data))
}

func TestForwardWriteNonJSONResponseIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>moved</html>"))
	}))
	defer srv.Close()

	client := NewClient("")
	data, err := client.ForwardWrite(context.Background(), srv.URL, []byte(`{}`))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, true, out["success"])
}

func TestForwardWriteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("")
	_, err := client.ForwardWrite(context.Background(), srv.URL, []byte(`{}`))
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
}
