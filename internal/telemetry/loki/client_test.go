package loki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func captureServer(t *testing.T, status int) (*httptest.Server, *PushRequest) {
	t.Helper()
	got := &PushRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(got)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestClient_PushEventJSON_Labels(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)
	raw := []byte(`{"id":"e1","eventType":"login_success","source":"http","role":"owner","createdAt":"2024-05-01T10:00:00Z"}`)
	if err := NewClient(srv.URL + "/").PushEventJSON(context.Background(), raw); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	if len(got.Streams) != 1 {
		t.Fatalf("streams = %d, want 1", len(got.Streams))
	}
	s := got.Streams[0]
	want := map[string]string{"job": "staffhub", "event_type": "login_success", "source": "http", "role": "owner"}
	for k, v := range want {
		if s.Stream[k] != v {
			t.Errorf("label %q = %q, want %q", k, s.Stream[k], v)
		}
	}
	if s.Values[0][0] != "1714557600000000000" {
		t.Errorf("timestamp = %q", s.Values[0][0])
	}
	if s.Values[0][1] != string(raw) {
		t.Errorf("line = %q", s.Values[0][1])
	}
}

func TestClient_PushEventJSON_RawFallback(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)
	if err := NewClient(srv.URL).PushEventJSON(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	if len(got.Streams[0].Stream) != 1 {
		t.Errorf("labels = %v, want only job", got.Streams[0].Stream)
	}
}

func TestClient_PushEvent_SanitizesLabels(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)
	err := NewClient(srv.URL).PushEventJSON(context.Background(), []byte(`{"eventType":"task status/changed"}`))
	if err != nil {
		t.Fatal(err)
	}
	if v := got.Streams[0].Stream["event_type"]; v != "task_status_changed" {
		t.Errorf("event_type = %q", v)
	}
}

func TestClient_PushEvent_Errors(t *testing.T) {
	srv, _ := captureServer(t, http.StatusBadRequest)
	if err := NewClient(srv.URL).PushEventJSON(context.Background(), []byte(`{}`)); err == nil {
		t.Error("non-2xx should fail")
	}
	if err := NewClient("").PushEventJSON(context.Background(), []byte(`{}`)); err == nil {
		t.Error("empty base URL should fail")
	}
}
