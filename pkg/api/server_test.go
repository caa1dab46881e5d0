package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/collector"
	"github.com/platinummonkey/depcollect/pkg/config"
	"github.com/platinummonkey/depcollect/pkg/httputil"
	"github.com/platinummonkey/depcollect/pkg/observability"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

// setupServer serves app:1 -> lib:1 -> util:1, with util:1 depending back on
// app:1 and lib:1 also depending on the missing gone:1.
func setupServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	store := repository.NewMemory()
	store.AddDependencies(artifact.MustParse("g:app:1"),
		artifact.MustParseDependency("g:lib:1", "compile"))
	store.AddDependencies(artifact.MustParse("g:lib:1"),
		artifact.MustParseDependency("g:util:1", "compile"))
	store.AddDependencies(artifact.MustParse("g:util:1"))
	store.AddDependencies(artifact.MustParse("g:cyc:1"),
		artifact.MustParseDependency("g:back:1", "compile"))
	store.AddDependencies(artifact.MustParse("g:back:1"),
		artifact.MustParseDependency("g:cyc:1", "compile"))
	store.AddDependencies(artifact.MustParse("g:broken:1"),
		artifact.MustParseDependency("g:gone:1", "compile"))

	log, _ := test.NewNullLogger()
	c := collector.New(store, store, collector.WithLogger(log))
	opts = append([]Option{WithLogger(log), WithRepositories([]repository.Remote{central})}, opts...)
	return NewServer(c, store, config.CollectorConfig{Parallelism: 1}, opts...)
}

func postCollect(t *testing.T, s *Server, query string, body interface{}) (*httptest.ResponseRecorder, CollectResponse) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/collect"+query, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var resp CollectResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestCollect_Tree(t *testing.T) {
	s := setupServer(t)

	rec, resp := postCollect(t, s, "", CollectRequest{Root: &repository.DependencyEntry{Coords: "g:app:1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(httputil.RequestIDHeader))

	assert.Equal(t, FormatTree, resp.Format)
	require.NotNil(t, resp.Root)
	assert.Equal(t, "g:app:jar:1", resp.Root.Artifact)
	require.Len(t, resp.Root.Children, 1)
	lib := resp.Root.Children[0]
	assert.Equal(t, "g:lib:jar:1", lib.Artifact)
	assert.Equal(t, "compile", lib.Scope)
	assert.Equal(t, []string{"central"}, lib.Repositories)
	require.Len(t, lib.Children, 1)
	assert.Equal(t, "g:util:jar:1", lib.Children[0].Artifact)

	assert.Equal(t, 3, resp.Stats.Nodes)
	assert.Empty(t, resp.Errors)
	assert.Empty(t, resp.Cycles)
}

func TestCollect_Formats(t *testing.T) {
	s := setupServer(t)
	body := CollectRequest{Root: &repository.DependencyEntry{Coords: "g:app:1"}}

	_, flat := postCollect(t, s, "?format=flat", body)
	var coords []string
	for _, a := range flat.Artifacts {
		coords = append(coords, a.Coords)
	}
	assert.Equal(t, []string{"g:app:jar:1", "g:lib:jar:1", "g:util:jar:1"}, coords)

	_, order := postCollect(t, s, "?format=order", body)
	assert.Equal(t, []string{"g:util:jar:1", "g:lib:jar:1", "g:app:jar:1"}, order.BuildOrder)

	_, cy := postCollect(t, s, "?format=cytoscape", body)
	require.NotNil(t, cy.Graph)
	assert.Len(t, cy.Graph.Nodes, 3)
	assert.Len(t, cy.Graph.Edges, 2)

	rec, _ := postCollect(t, s, "?format=xml", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollect_CyclesAndErrors(t *testing.T) {
	s := setupServer(t)

	rec, resp := postCollect(t, s, "", CollectRequest{Root: &repository.DependencyEntry{Coords: "g:cyc:1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Cycles, 1)
	assert.Equal(t, []string{"g:cyc:jar:1", "g:back:jar:1", "g:cyc:jar:1"}, resp.Cycles[0].Cyclic)

	rec, resp = postCollect(t, s, "", CollectRequest{Root: &repository.DependencyEntry{Coords: "g:broken:1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "g:gone")
	assert.Equal(t, 1, resp.Stats.Errors)
}

func TestCollect_SessionOverrides(t *testing.T) {
	s := setupServer(t)
	verbose := true
	body := CollectRequest{
		Root:                &repository.DependencyEntry{Coords: "g:app:1"},
		ManagedDependencies: []repository.DependencyEntry{{Coords: "g:util:2", Scope: "runtime"}},
		Session:             &SessionOptions{Verbose: &verbose},
	}

	rec, resp := postCollect(t, s, "", body)
	require.Equal(t, http.StatusOK, rec.Code)
	util := resp.Root.Children[0].Children[0]
	assert.Equal(t, "g:util:jar:2", util.Artifact)
	assert.Equal(t, "runtime", util.Scope)
	assert.Equal(t, []string{"version", "scope"}, util.Managed)
	assert.Equal(t, map[string]string{"version": "1", "scope": "compile"}, util.Premanaged)

	body.Session = &SessionOptions{Manager: "strict"}
	rec, _ = postCollect(t, s, "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown dependency manager")
}

func TestCollect_BadRequests(t *testing.T) {
	s := setupServer(t)

	rec, _ := postCollect(t, s, "", CollectRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "nothing to collect")

	req := httptest.NewRequest(http.MethodPost, "/v1/collect", strings.NewReader(`{"root":`))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, rec.Header().Get(httputil.RequestIDHeader), body.RequestID)
}

func TestGetDescriptor(t *testing.T) {
	s := setupServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/descriptors/g:lib:1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var doc repository.DescriptorDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Dependencies, 1)
	assert.Equal(t, "g:util:jar:1", doc.Dependencies[0].Coords)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/descriptors/g:gone:1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/descriptors/nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	health := observability.NewHealthChecker("test")
	s := setupServer(t, WithMetrics(metrics, registry), WithHealthChecker(health))

	postCollect(t, s, "", CollectRequest{Root: &repository.DependencyEntry{Coords: "g:app:1"}})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "depcollect_http_requests_total")
}

func TestServer_NotFound(t *testing.T) {
	s := setupServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/modules", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutDescriptor(t *testing.T) {
	log, _ := test.NewNullLogger()
	stack, err := repository.Open(context.Background(), repository.Config{Type: repository.TypeMemory, CacheSize: 10}, log)
	require.NoError(t, err)
	defer stack.Close()

	otelMetrics, err := observability.NewOTelMetrics()
	require.NoError(t, err)
	c := collector.New(stack.Descriptors, stack.Ranges, collector.WithLogger(log))
	s := NewServer(c, stack.Descriptors, config.CollectorConfig{Parallelism: 1},
		WithLogger(log), WithPublisher(stack), WithOTelMetrics(otelMetrics))

	put := func(coords, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/v1/descriptors/"+coords, strings.NewReader(body))
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusCreated, put("g:app:1", `{"dependencies":[{"coords":"g:lib:1"}]}`).Code)
	require.Equal(t, http.StatusCreated, put("g:lib:1", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, put("g:bad:1", `{"dependencies":[{"coords":"x"}]}`).Code)

	rec, resp := postCollect(t, s, "", CollectRequest{Root: &repository.DependencyEntry{Coords: "g:app:1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Root.Children, 1)
	assert.Empty(t, resp.Root.Children[0].Children)

	// a re-published descriptor is visible despite the cache
	require.Equal(t, http.StatusCreated, put("g:lib:1", `{"dependencies":[{"coords":"g:util:1"}]}`).Code)
	require.Equal(t, http.StatusCreated, put("g:util:1", `{}`).Code)
	_, resp = postCollect(t, s, "", CollectRequest{Root: &repository.DependencyEntry{Coords: "g:app:1"}})
	require.Len(t, resp.Root.Children[0].Children, 1)
	assert.Equal(t, "g:util:jar:1", resp.Root.Children[0].Children[0].Artifact)
}

func TestPutDescriptor_Disabled(t *testing.T) {
	s := setupServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/descriptors/g:a:1", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
