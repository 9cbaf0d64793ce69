package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oxbow-chat/oxbow/internal/app"
	"github.com/oxbow-chat/oxbow/internal/channel"
	"github.com/oxbow-chat/oxbow/internal/command"
	_ "github.com/oxbow-chat/oxbow/internal/testing/guard"
)

type fakeCommands struct {
	rows []command.WithAliases
}

func (f *fakeCommands) ListWithAliases(ctx context.Context, offset, limit int) ([]command.WithAliases, int, error) {
	end := offset + limit
	if offset > len(f.rows) {
		offset = len(f.rows)
	}
	if end > len(f.rows) {
		end = len(f.rows)
	}
	return f.rows[offset:end], len(f.rows), nil
}

func (f *fakeCommands) Get(ctx context.Context, id int32) (command.Attributes, error) {
	for _, row := range f.rows {
		if row.ID == id {
			return row.Attributes, nil
		}
	}
	return command.Attributes{}, command.ErrNotFound
}

type fakeChannels struct {
	rows []channel.Channel
}

func (f *fakeChannels) List(ctx context.Context) ([]channel.Channel, error) { return f.rows, nil }

func (f *fakeChannels) Get(ctx context.Context, name string) (channel.Channel, error) {
	for _, row := range f.rows {
		if row.Name == name {
			return row, nil
		}
	}
	return channel.Channel{}, channel.ErrNotFound
}

func testServer(t *testing.T, tokenHash string) *httptest.Server {
	t.Helper()
	h := NewHandler(slog.New(slog.DiscardHandler),
		&fakeCommands{rows: []command.WithAliases{
			{Attributes: command.Attributes{ID: 1, HandlerName: "say", Enabled: true}, Aliases: []string{"echo", "say"}},
			{Attributes: command.Attributes{ID: 2, HandlerName: "channel", Enabled: true}, Aliases: []string{"ch"}},
		}},
		&fakeChannels{rows: []channel.Channel{{ID: 1, Name: "somechannel", JoinOnStart: true}}})
	router := NewRouter(RouterParams{
		Logger:  slog.New(slog.DiscardHandler),
		Config:  &app.Config{AppEnv: "test", AdminTokenHash: tokenHash},
		Handler: h,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestAdminAPIAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sekrit"), bcrypt.MinCost)
	require.NoError(t, err)
	srv := testServer(t, string(hash))

	require.Equal(t, http.StatusUnauthorized, get(t, srv, "/api/commands", "").StatusCode)
	require.Equal(t, http.StatusUnauthorized, get(t, srv, "/api/commands", "wrong").StatusCode)
	require.Equal(t, http.StatusOK, get(t, srv, "/api/commands", "sekrit").StatusCode)
	// Health stays open.
	require.Equal(t, http.StatusOK, get(t, srv, "/healthz", "").StatusCode)
}

func TestAdminAPIRefusesWithoutConfiguredToken(t *testing.T) {
	srv := testServer(t, "")
	require.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/api/commands", "anything").StatusCode)
}

func TestListCommands(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sekrit"), bcrypt.MinCost)
	require.NoError(t, err)
	srv := testServer(t, string(hash))

	resp := get(t, srv, "/api/commands?page=1&per_page=1", "sekrit")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Items []command.WithAliases `json:"items"`
		Total int                   `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, 2, body.Total)
	require.Len(t, body.Items, 1)
	require.Equal(t, []string{"echo", "say"}, body.Items[0].Aliases)

	require.Equal(t, http.StatusBadRequest, get(t, srv, "/api/commands?per_page=9999", "sekrit").StatusCode)
}

func TestGetChannel(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sekrit"), bcrypt.MinCost)
	require.NoError(t, err)
	srv := testServer(t, string(hash))

	resp := get(t, srv, "/api/channels/somechannel", "sekrit")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ch channel.Channel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ch))
	require.Equal(t, "somechannel", ch.Name)

	require.Equal(t, http.StatusNotFound, get(t, srv, "/api/channels/unknown", "sekrit").StatusCode)
}
