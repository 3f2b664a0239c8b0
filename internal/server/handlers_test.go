package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftwatch/internal/changelog"
	"driftwatch/internal/git"
	"driftwatch/internal/indexer"
	"driftwatch/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, root, changelogDir string) *Server {
	t.Helper()
	reader, err := changelog.NewReader(changelogDir)
	require.NoError(t, err)
	repo := git.NewRepo(root)
	builder := indexer.NewBuilder(repo, 2, time.Second)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(repo, builder, reader, logger, "test")
}

func writeDayFile(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func seedChangelog(t *testing.T, dir string) {
	t.Helper()
	writeDayFile(t, dir, "2025-11-02.jsonl",
		`{"timestamp":"2025-11-02T09:00:00Z","branch":"main","files":["app.py"],"summary":"first","diff":"diff one"}`,
	)
	writeDayFile(t, dir, "2025-11-03.jsonl",
		`{"timestamp":"2025-11-03T10:00:00Z","branch":"main","files":["app.py","util.py"],"summary":"second","diff":""}`,
		`{"timestamp":"2025-11-03T11:00:00Z","branch":"feature","files":["models.py"],"summary":"third","diff":"diff three"}`,
	)
}

func doRequest(t *testing.T, s *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	return er
}

type changeListResponse struct {
	Items []types.ChangeEntry `json:"items"`
	Total int                 `json:"total"`
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, t.TempDir(), t.TempDir())

	rec := doRequest(t, s, http.MethodGet, "/api/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestHandleListChanges_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	seedChangelog(t, dir)
	s := newTestServer(t, t.TempDir(), dir)

	rec := doRequest(t, s, http.MethodGet, "/api/changes", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body changeListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Total)
	require.Len(t, body.Items, 3)
	assert.Equal(t, "2025-11-03#2", body.Items[0].ID)
	assert.Equal(t, "2025-11-03#1", body.Items[1].ID)
	assert.Equal(t, "2025-11-02#1", body.Items[2].ID)
	assert.True(t, body.Items[0].DiffPresent)
	assert.False(t, body.Items[1].DiffPresent)
}

func TestHandleListChanges_PagingAndFilters(t *testing.T) {
	dir := t.TempDir()
	seedChangelog(t, dir)
	s := newTestServer(t, t.TempDir(), dir)

	t.Run("paging", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/changes?limit=1&offset=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body changeListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 3, body.Total)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "2025-11-03#1", body.Items[0].ID)
	})

	t.Run("offset beyond end", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/changes?offset=10", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body changeListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 3, body.Total)
		assert.Len(t, body.Items, 0)
	})

	t.Run("branch filter", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/changes?branch=feature", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body changeListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Total)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "2025-11-03#2", body.Items[0].ID)
	})

	t.Run("date filter", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/changes?date=2025-11-02", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body changeListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Total)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "2025-11-02#1", body.Items[0].ID)
	})

	t.Run("file filter is case-insensitive", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/changes?file=MODELS", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body changeListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Total)
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/changes?limit=abc", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		er := decodeError(t, rec)
		assert.Equal(t, "invalid limit", er.Error)
		assert.Equal(t, "INVALID_REQUEST", er.Code)
	})
}

func TestHandleChangeDetail(t *testing.T) {
	dir := t.TempDir()
	seedChangelog(t, dir)
	s := newTestServer(t, t.TempDir(), dir)

	t.Run("found", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/changes/2025-11-02%231", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var detail types.ChangeDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
		assert.Equal(t, "2025-11-02#1", detail.ID)
		assert.Equal(t, "diff one", detail.Diff)
	})

	t.Run("unknown line", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/changes/2025-11-02%2399", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		er := decodeError(t, rec)
		assert.Equal(t, "Change not found", er.Error)
		assert.Equal(t, "NOT_FOUND", er.Code)
	})

	t.Run("unknown day file", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/changes/2099-01-01%231", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
	})
}

func TestHandleCheckout_Validation(t *testing.T) {
	s := newTestServer(t, t.TempDir(), t.TempDir())

	t.Run("missing hash", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/checkout", strings.NewReader(`{"branch":"review"}`))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		er := decodeError(t, rec)
		assert.Equal(t, "hash is required", er.Error)
		assert.Equal(t, "INVALID_REQUEST", er.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/checkout", strings.NewReader("not json"))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		er := decodeError(t, rec)
		assert.Equal(t, "invalid request body", er.Error)
		assert.Equal(t, "INVALID_REQUEST", er.Code)
	})
}

func TestHandleListCommits_InvalidLimit(t *testing.T) {
	s := newTestServer(t, t.TempDir(), t.TempDir())

	rec := doRequest(t, s, http.MethodGet, "/api/commits?limit=abc", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	er := decodeError(t, rec)
	assert.Equal(t, "invalid limit", er.Error)
	assert.Equal(t, "INVALID_REQUEST", er.Code)
}

func TestHandleNamespaces_Worktree(t *testing.T) {
	root := t.TempDir()
	source := `class User:
    id = 1

    def save(self):
        pass

def helper():
    pass
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "models.py"), []byte(source), 0o644))
	s := newTestServer(t, root, t.TempDir())

	rec := doRequest(t, s, http.MethodGet, "/api/namespaces", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var snap map[string]map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Contains(t, snap, "models.py")
	assert.Equal(t, []string{"User"}, snap["models.py"]["classes"])
	assert.Equal(t, []string{"helper"}, snap["models.py"]["functions"])
	assert.Equal(t, []string{"User.save"}, snap["models.py"]["methods"])
	assert.Equal(t, []string{"id"}, snap["models.py"]["columns"])
	assert.Empty(t, snap["models.py"]["tables"])
}

func TestHandleNamespacesDiff_IdenticalRefs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.py"), []byte("def main():\n    pass\n"), 0o644))
	s := newTestServer(t, root, t.TempDir())

	rec := doRequest(t, s, http.MethodGet, "/api/namespaces/diff?ref_a=WORKTREE&ref_b=WORKTREE", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Files         map[string]json.RawMessage `json:"files"`
		AddedTotals   map[string][]string        `json:"added_totals"`
		RemovedTotals map[string][]string        `json:"removed_totals"`
		Renames       []json.RawMessage          `json:"renames"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotNil(t, body.Files)
	assert.Empty(t, body.Files)
	assert.NotNil(t, body.Renames)
	assert.Empty(t, body.Renames)
}

func TestHandleNamespaces_BadRef(t *testing.T) {
	s := newTestServer(t, t.TempDir(), t.TempDir())

	rec := doRequest(t, s, http.MethodGet, "/api/namespaces?ref=HEAD", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "SCAN_FAILED", decodeError(t, rec).Code)
}
