// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	ws "github.com/tomtom215/liftsync/internal/websocket"
)

func TestCheckWebSocketOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origin  string
		host    string
		allowed []string
		want    bool
	}{
		{"missing origin", "", "api.local", nil, false},
		{"same host without config", "http://api.local", "api.local", nil, true},
		{"other host without config", "http://evil.example", "api.local", nil, false},
		{"listed origin", "https://dash.example.com", "api.local", []string{"https://dash.example.com"}, true},
		{"unlisted origin", "https://other.example.com", "api.local", []string{"https://dash.example.com"}, false},
		{"wildcard", "https://anything.example", "api.local", []string{"*"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := checkWebSocketOrigin(req, tt.allowed); got != tt.want {
				t.Errorf("checkWebSocketOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWebSocket_ReceivesBroadcast(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Security.CORSOrigins = []string{"*"}
	env := newTestEnv(t, cfg, nil, nil)

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.RunWithContext(ctx) }()
	env.handler.wsHub = hub

	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	header := http.Header{"Origin": []string{"http://client.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.BroadcastRaw("backfill.completed", []byte(`{"new_record_count":2}`))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"type":"backfill.completed"`) || !strings.Contains(string(data), `"new_record_count":2`) {
		t.Errorf("unexpected message %s", data)
	}
}
