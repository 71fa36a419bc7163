package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/easeaico/senior-acido/internal/chat"
	"github.com/easeaico/senior-acido/internal/observability"
	"github.com/easeaico/senior-acido/internal/session"
	"github.com/easeaico/senior-acido/internal/types"
)

type fakeTurns struct {
	inputs    []chat.Input
	forgotten int64
	forgetErr error
}

func (f *fakeTurns) HandleTurn(_ context.Context, sess *session.Session, in chat.Input) (chat.Reply, error) {
	if strings.TrimSpace(in.Message) == "" && in.Attachment == nil {
		return chat.Reply{}, chat.ErrEmptyInput
	}
	f.inputs = append(f.inputs, in)
	reply := chat.Reply{Text: "**Resposta** do Sênior", Model: "llama-3.1-8b-instant", Label: "econômico"}
	sess.Append(
		types.Turn{Role: types.RoleUser, Text: in.Message},
		types.Turn{Role: types.RoleAssistant, Text: reply.Text, Model: reply.Model},
	)
	return reply, nil
}

func (f *fakeTurns) ForgetCasual(context.Context, string) (int64, error) {
	return f.forgotten, f.forgetErr
}

type fakeStore struct {
	persistent bool
	err        error
}

func (f fakeStore) Ping(context.Context) error { return f.err }
func (f fakeStore) Persistent() bool           { return f.persistent }

func newTestServer(turns *fakeTurns, store Pinger) (*httptest.Server, *session.Manager) {
	mgr := session.NewManager("mentorado", func() string { return "persona" }, time.Hour)
	srv := New(turns, mgr, store, observability.NewMetrics("web_test"), "mentorado")
	return httptest.NewServer(srv.Router()), mgr
}

func noRedirectClient() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
}

func TestChatAPI(t *testing.T) {
	turns := &fakeTurns{}
	ts, mgr := newTestServer(turns, fakeStore{})
	defer ts.Close()

	data := base64.StdEncoding.EncodeToString([]byte("a,b\n1,2\n"))
	body := `{"message":"explique isso","attachment":{"name":"x.csv","content_type":"text/csv","data":"` + data + `"}}`
	resp, err := http.Post(ts.URL+"/api/v1/chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var out struct {
		SessionID string `json:"session_id"`
		Reply     string `json:"reply"`
		Model     string `json:"model"`
		Label     string `json:"label"`
		Fallback  bool   `json:"fallback"`
		PII       bool   `json:"pii"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.SessionID == "" || out.Reply != "**Resposta** do Sênior" || out.Label != "econômico" {
		t.Fatalf("unexpected response: %+v", out)
	}
	if len(turns.inputs) != 1 || string(turns.inputs[0].Attachment.Data) != "a,b\n1,2\n" {
		t.Fatalf("attachment not decoded: %+v", turns.inputs)
	}
	if turns.inputs[0].ClientIP == "" {
		t.Fatal("client IP not forwarded")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/session", nil)
	req.Header.Set(sessionHeader, out.SessionID)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	defer resp2.Body.Close()
	var sess sessionResponse
	if err := json.NewDecoder(resp2.Body).Decode(&sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sess.SessionID != out.SessionID || len(sess.Turns) != 2 {
		t.Fatalf("unexpected session: %+v", sess)
	}

	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/session", nil)
	req.Header.Set(sessionHeader, out.SessionID)
	resp3, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete session: %v", err)
	}
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status %d", resp3.StatusCode)
	}
	live, err := mgr.Get(out.SessionID)
	if err != nil || live.Len() != 0 {
		t.Fatalf("session not reset: %v", err)
	}
}

func TestChatAPIRejectsEmptyAndInvalid(t *testing.T) {
	ts, _ := newTestServer(&fakeTurns{}, fakeStore{})
	defer ts.Close()

	for _, body := range []string{`{"message":"  "}`, `{not json`} {
		resp, err := http.Post(ts.URL+"/api/v1/chat", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestChatFormAndPage(t *testing.T) {
	turns := &fakeTurns{}
	ts, _ := newTestServer(turns, fakeStore{})
	defer ts.Close()
	client := noRedirectClient()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("message", "<script>alert(1)</script> explique")
	fw, _ := mw.CreateFormFile("file", "notas.txt")
	_, _ = fw.Write([]byte("conteúdo"))
	_ = mw.Close()

	resp, err := client.Post(ts.URL+"/chat", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	if len(turns.inputs) != 1 || turns.inputs[0].Attachment == nil || turns.inputs[0].Attachment.Name != "notas.txt" {
		t.Fatalf("form attachment not forwarded: %+v", turns.inputs)
	}

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("session cookie not set")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	req.AddCookie(cookie)
	page, err := client.Do(req)
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	html, _ := io.ReadAll(page.Body)
	page.Body.Close()

	if !strings.Contains(string(html), "<strong>Resposta</strong>") {
		t.Fatal("assistant reply not rendered as markdown")
	}
	if strings.Contains(string(html), "<script>alert(1)</script>") {
		t.Fatal("user text must be escaped")
	}
	if !strings.Contains(string(html), "Limpar Conversa (LGPD)") {
		t.Fatal("reset action missing")
	}

	req, _ = http.NewRequest(http.MethodPost, ts.URL+"/session/reset", nil)
	req.AddCookie(cookie)
	reset, err := client.Do(req)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	reset.Body.Close()
	if reset.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", reset.StatusCode)
	}
}

func TestForgetCasual(t *testing.T) {
	turns := &fakeTurns{forgotten: 4}
	ts, _ := newTestServer(turns, fakeStore{})
	defer ts.Close()

	resp, err := noRedirectClient().Post(ts.URL+"/memory/forget-casual", "", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); loc != "/?esquecidas=4" {
		t.Fatalf("unexpected redirect %q", loc)
	}

	turns.forgetErr = errors.New("db down")
	resp, err = http.Post(ts.URL+"/api/v1/memory/forget-casual", "", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	tests := []struct {
		name  string
		store Pinger
		want  int
	}{
		{name: "in-memory", store: fakeStore{}, want: http.StatusOK},
		{name: "postgres up", store: fakeStore{persistent: true}, want: http.StatusOK},
		{name: "postgres down", store: fakeStore{persistent: true, err: errors.New("refused")}, want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(&fakeTurns{}, tt.store)
			defer ts.Close()
			resp, err := http.Get(ts.URL + "/healthz")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}

	ts, _ := newTestServer(&fakeTurns{}, fakeStore{})
	defer ts.Close()
	_, _ = http.Get(ts.URL + "/")
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "web_test_active_sessions") {
		t.Fatal("metrics missing active sessions gauge")
	}
}

// slowTurns holds the session's turn lock until release is closed.
type slowTurns struct {
	started chan struct{}
	release chan struct{}
}

func (f *slowTurns) HandleTurn(_ context.Context, sess *session.Session, in chat.Input) (chat.Reply, error) {
	done := sess.BeginTurn()
	defer done()
	close(f.started)
	<-f.release
	sess.Append(
		types.Turn{Role: types.RoleUser, Text: in.Message},
		types.Turn{Role: types.RoleAssistant, Text: "resposta"},
	)
	return chat.Reply{Text: "resposta"}, nil
}

func (f *slowTurns) ForgetCasual(context.Context, string) (int64, error) { return 0, nil }

func TestDeleteSessionWaitsForRunningTurn(t *testing.T) {
	turns := &slowTurns{started: make(chan struct{}), release: make(chan struct{})}
	mgr := session.NewManager("mentorado", nil, time.Hour)
	ts := httptest.NewServer(New(turns, mgr, fakeStore{}, observability.NewMetrics("web_reset"), "mentorado").Router())
	defer ts.Close()
	sess := mgr.Create()

	send := func(method, path, body string) <-chan int {
		status := make(chan int, 1)
		go func() {
			req, _ := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
			req.Header.Set(sessionHeader, sess.ID)
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				status <- 0
				return
			}
			resp.Body.Close()
			status <- resp.StatusCode
		}()
		return status
	}

	chatDone := send(http.MethodPost, "/api/v1/chat", `{"message":"meu CPF é 123.456.789-09"}`)
	<-turns.started
	resetDone := send(http.MethodDelete, "/api/v1/session", "")

	select {
	case code := <-resetDone:
		t.Fatalf("reset returned %d while a turn was running", code)
	case <-time.After(50 * time.Millisecond):
	}
	close(turns.release)

	if code := <-chatDone; code != http.StatusOK {
		t.Fatalf("chat status %d", code)
	}
	if code := <-resetDone; code != http.StatusNoContent {
		t.Fatalf("reset status %d", code)
	}
	if n := sess.Len(); n != 0 {
		t.Fatalf("cleared session kept %d turns", n)
	}
}
