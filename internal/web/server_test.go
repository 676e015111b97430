package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillwiki/quill/internal/config"
	"github.com/quillwiki/quill/internal/storage/memstore"
	"github.com/quillwiki/quill/internal/talk"
	"github.com/quillwiki/quill/internal/wiki"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := memstore.New()
	e := wiki.New(s, config.Default())
	ts := talk.NewService(s, e.Renderer(), e)
	srv := httptest.NewServer(NewServer(e, ts, talk.NewHub()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func pageURL(srv *httptest.Server, title, suffix string) string {
	return srv.URL + "/wiki/" + url.PathEscape(title) + suffix
}

func doJSON(t *testing.T, method, target string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestPageLifecycle(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPut, pageURL(srv, "Main Page", "/"), map[string]string{
		"markdown": "# Welcome\n\nsee [[Guide]]",
		"editor":   "alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decode[map[string]any](t, resp)
	assert.Contains(t, created["html"], "Welcome")

	resp = doJSON(t, http.MethodGet, pageURL(srv, "Main Page", "/"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, pageURL(srv, "Nonexistent", "/"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, pageURL(srv, "Main Page", "/?editor=alice"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHistoryAndDiffRoutes(t *testing.T) {
	srv := setupServer(t)

	for _, text := range []string{"first", "first and second"} {
		resp := doJSON(t, http.MethodPut, pageURL(srv, "Doc", "/"), map[string]string{
			"markdown": text, "editor": "alice",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := doJSON(t, http.MethodGet, pageURL(srv, "Doc", "/history"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	revs := decode[[]map[string]any](t, resp)
	assert.Len(t, revs, 2)

	resp = doJSON(t, http.MethodGet, pageURL(srv, "Doc", "/text/1"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "first", body["text"])

	resp = doJSON(t, http.MethodGet, pageURL(srv, "Doc", "/diff/2?format=gnu"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, pageURL(srv, "Doc", "/diff/99"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRenameRoute(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPut, pageURL(srv, "Old", "/"), map[string]string{
		"markdown": "content", "editor": "alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, pageURL(srv, "Old", "/rename"), map[string]string{
		"to": "New", "editor": "alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, pageURL(srv, "New", "/"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decode[map[string]any](t, resp)
	assert.Equal(t, "content", p["markdown"])
}

func TestTalkRoutes(t *testing.T) {
	srv := setupServer(t)
	topic := srv.URL + "/talk/" + url.PathEscape("Talk:Main Page")

	resp := doJSON(t, http.MethodGet, topic+"/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, topic+"/", map[string]string{
		"sender": "alice", "markdown": "first post",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	msg := decode[map[string]any](t, resp)
	assert.NotEmpty(t, msg["id"])

	resp = doJSON(t, http.MethodGet, topic+"/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExportImportRoutes(t *testing.T) {
	srv := setupServer(t)

	resp := doJSON(t, http.MethodPut, pageURL(srv, "Alpha", "/"), map[string]string{
		"markdown": "alpha", "editor": "alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	exported := decode[map[string]any](t, resp)
	require.NotNil(t, exported["pages"])

	srv2 := setupServer(t)
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(exported))
	resp2, err := http.Post(srv2.URL+"/import?editor=bob", "application/json", &buf)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	result := decode[map[string]int](t, resp2)
	assert.Equal(t, 1, result["imported"])
}
