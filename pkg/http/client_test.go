package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_SendAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		if r.URL.Query().Get("v") != "1" {
			t.Errorf("missing query param")
		}
		body, _ := io.ReadAll(r.Body)
		var in map[string]float64
		_ = json.Unmarshal(body, &in)
		_ = json.NewEncoder(w).Encode(map[string]float64{"double": in["x"] * 2})
	}))
	defer srv.Close()

	c := NewClient()
	var out map[string]float64
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL,
		QueryParams: map[string][]string{"v": {"1"}},
		Body:        map[string]float64{"x": 2.5},
	}, &out)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out["double"] != 5 {
		t.Fatalf("unexpected response %v", out)
	}
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "ephemeris files missing", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusServiceUnavailable || se.Body != "ephemeris files missing" {
		t.Fatalf("unexpected status error %+v", se)
	}
}
