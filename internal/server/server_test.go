package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmans/shelf/internal/config"
	"github.com/hmans/shelf/internal/graph"
	"github.com/hmans/shelf/internal/store"
	"github.com/hmans/shelf/internal/store/memory"
)

type gqlResponse struct {
	Data   map[string]any `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func newTestRouter(t *testing.T, s store.Store) *gin.Engine {
	t.Helper()
	return NewRouter(config.ServerConfig{RequestTimeout: time.Second}, &graph.Resolver{Store: s}, zerolog.Nop())
}

func postGraphQL(t *testing.T, h http.Handler, query string, vars map[string]any) (*httptest.ResponseRecorder, gqlResponse) {
	t.Helper()
	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp gqlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestGraphQLPost(t *testing.T) {
	router := newTestRouter(t, memory.New())

	rec, resp := postGraphQL(t, router,
		`mutation($published: Int!) { addBook(title: "Clean Code", published: $published, author: "Robert Martin") { title author { name bookCount } } }`,
		map[string]any{"published": 2008})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, resp.Errors)

	book := resp.Data["addBook"].(map[string]any)
	assert.Equal(t, "Clean Code", book["title"])
	assert.Equal(t, float64(1), book["author"].(map[string]any)["bookCount"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestGraphQLGet(t *testing.T) {
	router := newTestRouter(t, memory.New())

	req := httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape(`{ authorCount bookCount }`), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp gqlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(0), resp.Data["authorCount"])
	assert.Equal(t, float64(0), resp.Data["bookCount"])
}

func TestGraphQLErrorCode(t *testing.T) {
	router := newTestRouter(t, memory.New())

	_, resp := postGraphQL(t, router, `mutation { addBook(title: " ", published: 2008, author: "Robert Martin") { id } }`, nil)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "VALIDATION", resp.Errors[0].Extensions["code"])
	assert.Contains(t, resp.Errors[0].Extensions["fields"], "title")
}

func TestRequestIDPassthrough(t *testing.T) {
	router := newTestRouter(t, memory.New())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc123", rec.Header().Get(RequestIDHeader))
}

type downStore struct {
	store.Store
}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthz(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter(t, memory.New()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("store down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter(t, downStore{memory.New()}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/", func(c *gin.Context) {
		<-c.Request.Context().Done()
		c.String(http.StatusGatewayTimeout, c.Request.Context().Err().Error())
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, context.DeadlineExceeded.Error(), rec.Body.String())
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(0.001, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = rec.Code
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	// a different client has its own budget
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4321"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestClientLimitersEvictIdle(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newClientLimiters(1, 1, time.Minute)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	l.get("198.51.100.1")
	now = now.Add(30 * time.Second)
	l.get("198.51.100.2")
	require.Len(t, l.limiters, 2)

	// first client has been idle for a full minute, the second has not
	now = now.Add(30 * time.Second)
	l.get("198.51.100.2")
	assert.Len(t, l.limiters, 1)
	assert.Contains(t, l.limiters, "198.51.100.2")

	now = now.Add(2 * time.Minute)
	l.get("198.51.100.3")
	assert.Len(t, l.limiters, 1)
	assert.Contains(t, l.limiters, "198.51.100.3")
}

func TestGraphQLPlayground(t *testing.T) {
	router := newTestRouter(t, memory.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Shelf GraphQL")
}

func TestGraphQLIntrospection(t *testing.T) {
	router := newTestRouter(t, memory.New())

	_, resp := postGraphQL(t, router, `{ __schema { queryType { name } mutationType { name } } }`, nil)
	require.Empty(t, resp.Errors)
	schema := resp.Data["__schema"].(map[string]any)
	assert.Equal(t, "Query", schema["queryType"].(map[string]any)["name"])
	assert.Equal(t, "Mutation", schema["mutationType"].(map[string]any)["name"])
}
