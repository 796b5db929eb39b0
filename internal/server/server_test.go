package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"prompt-manager-core/internal/bootstrap"
	"prompt-manager-core/internal/config"
	"prompt-manager-core/internal/deeplink"
	"prompt-manager-core/internal/dto"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		App:    config.AppConfig{Environment: "test", LogFilePath: filepath.Join(dir, "app.log")},
		Store:  config.StoreConfig{Driver: "sqlite", DSN: filepath.Join(dir, "prompts.db")},
		Remote: config.RemoteConfig{Driver: "memory", RecordType: "SharedCreationRecord"},
		Assets: config.AssetConfig{Driver: "local", Dir: filepath.Join(dir, "assets")},
		Sync: config.SyncConfig{
			TempDir:            filepath.Join(dir, "tmp"),
			CleanupConcurrency: 2,
			ConflictPolicy:     "surface",
			DeepLinkScheme:     deeplink.DefaultScheme,
			ListLimit:          10,
		},
		Events: config.EventConfig{
			ChangeTopic:        "store.changes",
			ReplicationLogPath: filepath.Join(dir, "replication.log"),
		},
		Server: config.ServerConfig{CorsAllowedOrigins: "*"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	container, err := bootstrap.NewContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	srv, err := New(cfg, container)
	require.NoError(t, err)
	return srv
}

func call[T any](t *testing.T, srv *Server, method, path string, body interface{}, token string) (int, envelope[T]) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.GetApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope[T]
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func createPrompt(t *testing.T, srv *Server, token string) dto.PromptResponse {
	t.Helper()
	status, res := call[dto.PromptResponse](t, srv, http.MethodPost, "/api/prompt/v1", dto.CreatePromptRequest{
		Name:        "Foo",
		Text:        "hello",
		Attachments: [][]byte{[]byte("attachment")},
	}, token)
	require.Equal(t, http.StatusCreated, status, res.Message)
	return res.Data
}

func TestServer_PromptEndpoints(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	created := createPrompt(t, srv, "")
	assert.Equal(t, "Foo", created.Name)
	assert.Equal(t, 1, created.Attachments)

	status, list := call[[]dto.PromptResponse](t, srv, http.MethodGet, "/api/prompt/v1", nil, "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list.Data, 1)

	status, page := call[[]dto.PromptResponse](t, srv, http.MethodGet, "/api/prompt/v1?limit=1&offset=1", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, page.Data)

	status, _ = call[any](t, srv, http.MethodGet, "/api/prompt/v1?limit=-1", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, rewrite := call[dto.PromptHistoryResponse](t, srv, http.MethodPost, "/api/prompt/v1/"+created.Id.String()+"/rewrite",
		map[string]string{"text": "hello, improved"}, "")
	require.Equal(t, http.StatusOK, status, rewrite.Message)
	assert.Equal(t, 1, rewrite.Data.Version)

	status, shown := call[dto.PromptResponse](t, srv, http.MethodGet, "/api/prompt/v1/"+created.Id.String(), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, shown.Data.Histories, 2)

	status, _ = call[any](t, srv, http.MethodDelete, "/api/prompt/v1/"+created.Id.String(), nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = call[any](t, srv, http.MethodGet, "/api/prompt/v1/"+created.Id.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_ErrorMapping(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	status, res := call[any](t, srv, http.MethodGet, "/api/prompt/v1/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, res.Success)

	status, _ = call[any](t, srv, http.MethodPost, "/api/prompt/v1", map[string]string{"name": "no text"}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	created := createPrompt(t, srv, "")
	historyID := created.Histories[0].Id
	status, _ = call[any](t, srv, http.MethodDelete, "/api/prompt/v1/history/"+historyID.String(), nil, "")
	assert.Equal(t, http.StatusConflict, status)

	status, _ = call[any](t, srv, http.MethodPost, "/api/share/v1/import", dto.ImportRequest{URI: "https://example.com/x"}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call[any](t, srv, http.MethodPost, "/api/share/v1/import",
		dto.ImportRequest{URI: deeplink.Build(deeplink.DefaultScheme, uuid.New())}, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_ShareAndImport(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	created := createPrompt(t, srv, "")

	status, draft := call[dto.SharedCreationResponse](t, srv, http.MethodPost, "/api/prompt/v1/"+created.Id.String()+"/share",
		dto.CreateShareDraftRequest{IsPublic: true}, "")
	require.Equal(t, http.StatusCreated, status, draft.Message)
	assert.Empty(t, draft.Data.RemoteID)

	status, pushed := call[dto.SharedCreationResponse](t, srv, http.MethodPost, "/api/share/v1/"+draft.Data.Id.String()+"/push", nil, "")
	require.Equal(t, http.StatusOK, status, pushed.Message)
	assert.NotEmpty(t, pushed.Data.RemoteID)
	assert.Equal(t, deeplink.Build(deeplink.DefaultScheme, draft.Data.Id), pushed.Data.Link)

	status, public := call[[]dto.SharedCreationResponse](t, srv, http.MethodGet, "/api/share/v1/public", nil, "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, public.Data, 1)
	assert.Equal(t, "hello", public.Data[0].Prompt)

	status, imported := call[dto.ImportResponse](t, srv, http.MethodPost, "/api/share/v1/import", dto.ImportRequest{URI: pushed.Data.Link}, "")
	require.Equal(t, http.StatusCreated, status, imported.Message)
	assert.NotEqual(t, created.Id, imported.Data.PromptId)

	status, _ = call[any](t, srv, http.MethodDelete, "/api/share/v1/"+draft.Data.Id.String(), nil, "")
	require.Equal(t, http.StatusOK, status)

	status, public = call[[]dto.SharedCreationResponse](t, srv, http.MethodGet, "/api/share/v1/public", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, public.Data)
}

func TestServer_JwtProtectsWrites(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.JWTSecret = "test-secret"
	srv := newTestServer(t, cfg)

	status, _ := call[any](t, srv, http.MethodGet, "/api/prompt/v1", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call[any](t, srv, http.MethodGet, "/api/prompt/v1", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	createPrompt(t, srv, token)

	status, _ = call[any](t, srv, http.MethodGet, "/api/share/v1/public", nil, "")
	assert.Equal(t, http.StatusOK, status)
}
