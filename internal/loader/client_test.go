package loader

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/itemdeck/internal/auth"
	"github.com/yolodolo42/itemdeck/internal/fixture"
	"github.com/yolodolo42/itemdeck/internal/integration"
	"github.com/yolodolo42/itemdeck/internal/records"
)

func fixtureServer(t *testing.T, doc string) *httptest.Server {
	t.Helper()
	set, err := fixture.Parse([]byte(doc))
	require.NoError(t, err)

	ts := httptest.NewServer(fixture.NewServer(":0", set, zerolog.Nop()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_RequestShape(t *testing.T) {
	var (
		gotMethod, gotPath, gotContentType, gotAccept, gotRequestID string
		gotForm                                                     url.Values
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		gotRequestID = r.Header.Get(RequestIDHeader)
		body, _ := io.ReadAll(r.Body)
		gotForm, _ = url.ParseQuery(string(body))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL + "/")
	payload, err := c.Fetch(context.Background(), integration.HubSpot, auth.Bundle{"access_token": "abc", "portal": json.Number("42")})
	require.NoError(t, err)

	assert.JSONEq(t, `[]`, string(payload))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/integrations/hubspot/get_hubspot_items", gotPath)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "application/json", gotAccept)
	_, err = uuid.Parse(gotRequestID)
	assert.NoError(t, err, "request id is a uuid")
	assert.JSONEq(t, `{"access_token":"abc","portal":42}`, gotForm.Get("credentials"))
}

func TestClient_NilCredentials(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.FormValue("credentials")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL).Fetch(context.Background(), integration.Notion, nil)
	require.NoError(t, err)
	assert.Equal(t, "null", got)
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"detail string", http.StatusUnauthorized, `{"detail":"invalid token"}`, 401, "invalid token"},
		{"detail not a string", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body"]}]}`, 422, FallbackMessage},
		{"empty detail", http.StatusBadRequest, `{"detail":"  "}`, 400, FallbackMessage},
		{"non-json error body", http.StatusBadGateway, `<html>bad gateway</html>`, 502, FallbackMessage},
		{"malformed success body", http.StatusOK, `[{"type":`, 200, FallbackMessage},
		{"empty success body", http.StatusOK, ``, 200, FallbackMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			payload, err := NewClient(ts.URL).Fetch(context.Background(), integration.Notion, auth.Bundle{})
			require.Error(t, err)
			assert.Nil(t, payload)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.wantStatus, le.StatusCode)
			assert.Equal(t, tt.wantMsg, Message(err))
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := ts.URL
	ts.Close()

	_, err := NewClient(addr).Fetch(context.Background(), integration.Notion, auth.Bundle{})
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Zero(t, le.StatusCode)
	assert.Equal(t, FallbackMessage, Message(err))
}

func TestClient_ContextTimeout(t *testing.T) {
	ts := fixtureServer(t, `
integrations:
  notion:
    delay: 2s
    items: []
`)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(ts.URL).Fetch(ctx, integration.Notion, auth.Bundle{"access_token": "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_AnyJSONAccepted(t *testing.T) {
	ts := fixtureServer(t, `
integrations:
  hubspot:
    payload: {total: 3}
`)

	payload, err := NewClient(ts.URL).Fetch(context.Background(), integration.HubSpot, auth.Bundle{"access_token": "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":3}`, string(payload))
	assert.Equal(t, 0, records.Count(payload))
	assert.Empty(t, records.GroupPayload(payload, records.DefaultPreviewLimit))
}

func runLoad(t *testing.T, baseURL string, sel integration.Selector, creds auth.Bundle) *Controller {
	t.Helper()
	c := NewController(NewClient(baseURL), 5*time.Second, zerolog.Nop())
	cmd := c.Load(sel, creds)
	require.NotNil(t, cmd)
	require.True(t, c.Settle(cmd().(SettledMsg)))
	return c
}

func TestEndToEnd_ThreeItems(t *testing.T) {
	ts := fixtureServer(t, `
integrations:
  notion:
    items:
      - {type: page, name: A}
      - {type: page, name: B}
      - {type: db, name: C}
`)

	sel, err := integration.Parse("Notion")
	require.NoError(t, err)
	c := runLoad(t, ts.URL, sel, auth.Bundle{"token": "x"})
	require.Equal(t, Loaded, c.State())

	groups := records.GroupPayload(c.Payload(), 6)
	require.Len(t, groups, 2)
	assert.Equal(t, "page", groups[0].Category)
	assert.Len(t, groups[0].Preview, 2)
	assert.Equal(t, 0, groups[0].Overflow())
	assert.Equal(t, "db", groups[1].Category)
	assert.Len(t, groups[1].Preview, 1)
	assert.Equal(t, 0, groups[1].Overflow())
}

func TestEndToEnd_Overflow(t *testing.T) {
	var b strings.Builder
	b.WriteString("integrations:\n  notion:\n    items:\n")
	for i := 0; i < 8; i++ {
		b.WriteString("      - {type: page}\n")
	}
	ts := fixtureServer(t, b.String())

	c := runLoad(t, ts.URL, integration.Notion, auth.Bundle{"token": "x"})
	groups := records.GroupPayload(c.Payload(), 6)
	require.Len(t, groups, 1)
	assert.Equal(t, "page", groups[0].Category)
	assert.Len(t, groups[0].Preview, 6)
	assert.Equal(t, 2, groups[0].Overflow())
	assert.Equal(t, 8, records.Count(c.Payload()))
}

func TestEndToEnd_InvalidToken(t *testing.T) {
	ts := fixtureServer(t, `
integrations:
  notion:
    token: good
    items: []
`)

	c := runLoad(t, ts.URL, integration.Notion, auth.Bundle{"access_token": "bad"})
	assert.Equal(t, Errored, c.State())
	assert.Equal(t, "invalid token", c.Err())
	assert.Equal(t, Grouped, c.Mode())
	assert.Nil(t, c.Payload())

	c.Clear()
	assert.Equal(t, Idle, c.State())
}

func TestEndToEnd_LateResponseDiscarded(t *testing.T) {
	ts := fixtureServer(t, `
integrations:
  notion:
    delay: 100ms
    items: [{type: page}]
`)

	c := NewController(NewClient(ts.URL), 5*time.Second, zerolog.Nop())
	cmd := c.Load(integration.Notion, auth.Bundle{"access_token": "x"})
	require.NotNil(t, cmd)

	done := make(chan SettledMsg, 1)
	go func() { done <- cmd().(SettledMsg) }()

	c.Clear()
	msg := <-done
	require.NoError(t, msg.Err)

	assert.False(t, c.Settle(msg))
	assert.Equal(t, Idle, c.State())
	assert.Nil(t, c.Payload())
}
