package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient("TEST_TOKEN")
	client.BaseURL = srv.URL
	client.Client = srv.Client()
	return client, srv
}

func TestSendMessage(t *testing.T) {
	client, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTEST_TOKEN/sendMessage" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		var params SendMessageParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if params.ChatID != 99 || params.Text != "hello" {
			t.Errorf("request payload = %+v", params)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": Message{MessageID: 7, Chat: Chat{ID: 99}, Text: "hello"},
		})
	})

	msg, err := client.SendMessage(context.Background(), SendMessageParams{ChatID: 99, Text: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.MessageID != 7 {
		t.Errorf("MessageID = %d, want 7", msg.MessageID)
	}
}

func TestGetUpdates(t *testing.T) {
	client, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Offset  int64 `json:"offset"`
			Timeout int   `json:"timeout"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Offset != 42 || req.Timeout != 30 {
			t.Errorf("request = %+v", req)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": true,
			"result": []Update{
				{UpdateID: 42, Message: &Message{MessageID: 1, Chat: Chat{ID: 5}, Text: "/plan"}},
			},
		})
	})

	updates, err := client.GetUpdates(context.Background(), 42, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updates) != 1 || updates[0].Message.Text != "/plan" {
		t.Errorf("updates = %+v", updates)
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	client, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"error_code":  400,
			"description": "Bad Request: message is not modified",
		})
	})

	err := client.EditMessageText(context.Background(), EditMessageParams{ChatID: 1, MessageID: 2, Text: "same"})
	if err == nil {
		t.Fatal("want error for ok=false response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %T", err)
	}
	if apiErr.Code != 400 || apiErr.Method != "editMessageText" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestIsNotModified(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"other error", errors.New("network down"), false},
		{"api error", &APIError{Method: "editMessageText", Code: 400, Description: "Bad Request: message is not modified"}, true},
		{"different api error", &APIError{Method: "sendMessage", Code: 403, Description: "Forbidden"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotModified(tt.err); got != tt.want {
				t.Errorf("IsNotModified = %v, want %v", got, tt.want)
			}
		})
	}
}
