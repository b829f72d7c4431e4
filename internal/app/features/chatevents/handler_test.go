package chatevents_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/santahub/internal/app/features/chatevents"
	"github.com/dalemusser/santahub/internal/app/system/auth"
	"github.com/dalemusser/santahub/internal/app/system/conversation"
	"go.uber.org/zap"
)

type fakeInbox struct {
	mu  sync.Mutex
	got []conversation.Message
}

func (f *fakeInbox) Submit(msg conversation.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, msg)
	return "id", nil
}

func post(t *testing.T, router http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/chat/events", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func newRouter(inbox *fakeInbox, secret string) http.Handler {
	h := chatevents.NewHandler(inbox, zap.NewNop())
	mux := http.NewServeMux()
	mux.Handle("/chat/", http.StripPrefix("/chat", chatevents.Routes(h, secret, zap.NewNop())))
	return mux
}

func TestServe_URLVerification(t *testing.T) {
	router := newRouter(&fakeInbox{}, "")
	rec := post(t, router, `{"type":"url_verification","challenge":"abc123"}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["challenge"] != "abc123" {
		t.Errorf("challenge: got %q", resp["challenge"])
	}
}

func TestServe_QueuesDirectMessage(t *testing.T) {
	inbox := &fakeInbox{}
	router := newRouter(inbox, "")
	body := `{"type":"event_callback","event_id":"Ev1","event":{"type":"message","channel_type":"im","user":"U1","text":"yes"}}`

	rec := post(t, router, body, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if len(inbox.got) != 1 || inbox.got[0] != (conversation.Message{UserID: "U1", Text: "yes"}) {
		t.Errorf("unexpected queued messages: %+v", inbox.got)
	}
}

func TestServe_IgnoredEvents(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		headers map[string]string
	}{
		{"bot message", `{"type":"event_callback","event":{"type":"message","channel_type":"im","user":"U1","bot_id":"B1","text":"hi"}}`, nil},
		{"edit", `{"type":"event_callback","event":{"type":"message","channel_type":"im","subtype":"message_changed","text":"hi"}}`, nil},
		{"channel message", `{"type":"event_callback","event":{"type":"message","channel_type":"channel","user":"U1","text":"hi"}}`, nil},
		{"other event", `{"type":"event_callback","event":{"type":"app_mention","user":"U1","text":"hi"}}`, nil},
		{"retry", `{"type":"event_callback","event":{"type":"message","channel_type":"im","user":"U1","text":"hi"}}`, map[string]string{chatevents.RetryHeader: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inbox := &fakeInbox{}
			rec := post(t, newRouter(inbox, ""), tt.body, tt.headers)
			if rec.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
			}
			if len(inbox.got) != 0 {
				t.Errorf("expected nothing queued, got %+v", inbox.got)
			}
		})
	}
}

func TestServe_BadPayload(t *testing.T) {
	rec := post(t, newRouter(&fakeInbox{}, ""), `not json`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestServe_SignatureChecked(t *testing.T) {
	inbox := &fakeInbox{}
	router := newRouter(inbox, "secret")
	body := `{"type":"event_callback","event":{"type":"message","channel_type":"im","user":"U1","text":"yes"}}`
	ts := time.Now().Unix()

	rec := post(t, router, body, map[string]string{
		auth.TimestampHeader: strconv.FormatInt(ts, 10),
		auth.SignatureHeader: auth.Sign("wrong", ts, []byte(body)),
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}

	rec = post(t, router, body, map[string]string{
		auth.TimestampHeader: strconv.FormatInt(ts, 10),
		auth.SignatureHeader: auth.Sign("secret", ts, []byte(body)),
	})
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if len(inbox.got) != 1 {
		t.Errorf("expected one queued message, got %d", len(inbox.got))
	}
}
