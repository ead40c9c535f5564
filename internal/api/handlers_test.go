package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"liveboard/internal/models"
	"liveboard/internal/store"
)

type fakeSessions struct {
	loginErr  error
	logoutErr error
	logins    []string
	logouts   []string
}

func (f *fakeSessions) Login(ctx context.Context, username string) error {
	f.logins = append(f.logins, username)
	return f.loginErr
}

func (f *fakeSessions) ForceLogout(ctx context.Context, username string) error {
	f.logouts = append(f.logouts, username)
	return f.logoutErr
}

type fakeDocs struct {
	current  models.DocumentContent
	getErr   error
	replaced []models.DocumentContent
}

func (f *fakeDocs) GetCurrent(ctx context.Context) (*models.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.Document{ID: "doc", Content: f.current}, nil
}

func (f *fakeDocs) Replace(ctx context.Context, content models.DocumentContent) (*models.Document, error) {
	f.replaced = append(f.replaced, content)
	f.current = content
	return &models.Document{ID: "doc", Content: content}, nil
}

func doRequest(h http.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestLogin_Success(t *testing.T) {
	sessions := &fakeSessions{}
	h := NewHandler(sessions, &fakeDocs{})

	rec := doRequest(h.Login, http.MethodPost, `{"username":"alice"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true || body["username"] != "alice" {
		t.Errorf("body = %v", body)
	}
	if len(sessions.logins) != 1 || sessions.logins[0] != "alice" {
		t.Errorf("logins = %v, want [alice]", sessions.logins)
	}
}

func TestLogin_EmptyUsernameIs400(t *testing.T) {
	sessions := &fakeSessions{}
	h := NewHandler(sessions, &fakeDocs{})

	rec := doRequest(h.Login, http.MethodPost, `{"username":""}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if _, ok := decodeBody(t, rec)["error"]; !ok {
		t.Error("400 response should carry an error field")
	}
	if len(sessions.logins) != 0 {
		t.Error("validation failure must not reach the registry")
	}
}

func TestLogin_StoreUnavailableIs500(t *testing.T) {
	sessions := &fakeSessions{loginErr: store.ErrStoreUnavailable}
	h := NewHandler(sessions, &fakeDocs{})

	rec := doRequest(h.Login, http.MethodPost, `{"username":"alice"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestLogout_Success(t *testing.T) {
	sessions := &fakeSessions{}
	h := NewHandler(sessions, &fakeDocs{})

	rec := doRequest(h.Logout, http.MethodPost, `{"username":"alice"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("body = %v", body)
	}
	if len(sessions.logouts) != 1 || sessions.logouts[0] != "alice" {
		t.Errorf("logouts = %v, want [alice]", sessions.logouts)
	}
}

func TestLogout_EmptyUsernameIs400(t *testing.T) {
	h := NewHandler(&fakeSessions{}, &fakeDocs{})

	rec := doRequest(h.Logout, http.MethodPost, `{}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetDocument_ReturnsContent(t *testing.T) {
	docs := &fakeDocs{current: models.DocumentContent{
		Tables: []json.RawMessage{json.RawMessage(`{"id":1}`)},
		Users:  []json.RawMessage{},
	}}
	h := NewHandler(&fakeSessions{}, docs)

	rec := doRequest(h.GetDocument, http.MethodGet, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var content models.DocumentContent
	if err := json.Unmarshal(rec.Body.Bytes(), &content); err != nil {
		t.Fatalf("body is not document content: %v", err)
	}
	if len(content.Tables) != 1 {
		t.Errorf("content = %+v", content)
	}
}

func TestGetDocument_StoreFailureIs500(t *testing.T) {
	docs := &fakeDocs{getErr: store.ErrStoreUnavailable}
	h := NewHandler(&fakeSessions{}, docs)

	rec := doRequest(h.GetDocument, http.MethodGet, "")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestSetDocument_ReplacesAndReadsBack(t *testing.T) {
	docs := &fakeDocs{}
	h := NewHandler(&fakeSessions{}, docs)

	rec := doRequest(h.SetDocument, http.MethodPost,
		`{"content":{"tables":[{"id":7}],"users":[]}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(docs.replaced) != 1 {
		t.Fatalf("expected one Replace call, got %d", len(docs.replaced))
	}

	// Immediate read-back sees the write (no partial visibility).
	rec = doRequest(h.GetDocument, http.MethodGet, "")
	var content models.DocumentContent
	json.Unmarshal(rec.Body.Bytes(), &content)
	if len(content.Tables) != 1 || string(content.Tables[0]) != `{"id":7}` {
		t.Errorf("read-back content = %+v", content)
	}
}

func TestSetDocument_MalformedBodyIs400(t *testing.T) {
	h := NewHandler(&fakeSessions{}, &fakeDocs{})

	rec := doRequest(h.SetDocument, http.MethodPost, `{not json`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
