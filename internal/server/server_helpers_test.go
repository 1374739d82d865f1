package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"testing"
)

const testDrawingData = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mP8/x8AAwMBAp4pWZkAAAAASUVORK5CYII="

// browser is an HTTP client with its own cookie jar, so each one is a
// distinct player.
type browser struct {
	app    *testApp
	client *http.Client
	id     string
}

func (a *testApp) newBrowser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &browser{app: a, client: &http.Client{Jar: jar}}
}

func (b *browser) do(t *testing.T, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, b.app.ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := b.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func (b *browser) expect(t *testing.T, method, path string, payload any, status int) map[string]any {
	t.Helper()
	resp := b.do(t, method, path, payload)
	if resp.StatusCode != status {
		body := decodeBody(t, resp)
		t.Fatalf("%s %s: expected status %d, got %d (%v)", method, path, status, resp.StatusCode, body)
	}
	return decodeBody(t, resp)
}

func (b *browser) createRoom(t *testing.T, name string) string {
	t.Helper()
	body := b.expect(t, http.MethodPost, "/api/rooms", map[string]string{"name": name}, http.StatusCreated)
	b.id = body["player_id"].(string)
	return body["room_id"].(string)
}

func (b *browser) join(t *testing.T, code, name string) {
	t.Helper()
	body := b.expect(t, http.MethodPost, "/api/rooms/"+code+"/join", map[string]string{"name": name}, http.StatusOK)
	b.id = body["player_id"].(string)
}

func (b *browser) room(t *testing.T, code string) map[string]any {
	t.Helper()
	return b.expect(t, http.MethodGet, "/api/rooms/"+code, nil, http.StatusOK)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}
