package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vigil/catalog"
	"vigil/config"
	"vigil/core"
	"vigil/rbac"
	"vigil/storage"
)

// mapStore backs the API tests with an in-memory catalog store that can
// inject per-name failures.
type mapStore struct {
	docs      map[string]*core.Document
	errs      map[string]error
	getCalls  int
	listCalls int
}

func newMapStore() *mapStore {
	return &mapStore{docs: make(map[string]*core.Document), errs: make(map[string]error)}
}

func (s *mapStore) Get(name core.Name) (*core.Document, error) {
	s.getCalls++
	if err := s.errs[name.String()]; err != nil {
		return nil, err
	}
	doc, ok := s.docs[name.String()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

func (s *mapStore) Add(name core.Name, doc *core.Document) error {
	if _, exists := s.docs[name.String()]; exists {
		return storage.ErrAlreadyExists
	}
	s.docs[name.String()] = doc
	return nil
}

func (s *mapStore) Update(name core.Name, doc *core.Document) error {
	if _, exists := s.docs[name.String()]; !exists {
		return storage.ErrNotFound
	}
	s.docs[name.String()] = doc
	return nil
}

func (s *mapStore) Delete(name core.Name) error {
	if _, exists := s.docs[name.String()]; !exists {
		return storage.ErrNotFound
	}
	delete(s.docs, name.String())
	return nil
}

func (s *mapStore) List(t core.Type) ([]core.Name, error) {
	s.listCalls++
	var raw []string
	for key := range s.docs {
		if strings.HasPrefix(key, t.String()+"/") {
			raw = append(raw, key)
		}
	}
	sort.Strings(raw)
	names := make([]core.Name, len(raw))
	for i, key := range raw {
		names[i], _ = core.NewName(key)
	}
	return names, nil
}

// okValidator accepts any object document.
type okValidator struct{}

func (okValidator) validateObject(doc *core.Document) error {
	if !doc.IsObject() {
		return errors.New("document is not an object")
	}
	return nil
}

func (v okValidator) ValidateAsset(doc *core.Document) error       { return v.validateObject(doc) }
func (v okValidator) ValidatePolicy(doc *core.Document) error      { return v.validateObject(doc) }
func (v okValidator) ValidateIntegration(doc *core.Document) error { return v.validateObject(doc) }

func newTestAPI(t *testing.T) (*API, *mapStore) {
	t.Helper()
	store := newMapStore()
	cat, err := catalog.New(catalog.Config{
		Store:     store,
		Validator: okValidator{},
		Logger:    zap.NewNop().Sugar(),
	})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8085
	cfg.Storage.Backend = config.BackendSQLite
	cfg.API.RateLimit.RequestsPerSecond = 1000
	cfg.API.RateLimit.Burst = 1000

	return NewAPI(cat, rbac.NewStaticAuthorizer(rbac.DefaultPolicy()), cfg, zap.NewNop().Sugar()), store
}

func serve(t *testing.T, a *API, method, target, body string) (*httptest.ResponseRecorder, resourceResponse) {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, r)

	var resp resourceResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	}
	return w, resp
}

func TestPostThenGetResource(t *testing.T) {
	a, _ := newTestAPI(t)

	_, resp := serve(t, a, "POST", "/catalog/resources/decoder",
		`{"format":"json","content":"{\"name\":\"decoder/name/ok\"}","role":"admin"}`)
	require.Equal(t, "OK", resp.Status, resp.Error)

	w, resp := serve(t, a, "GET", "/catalog/resource/decoder/name/ok?format=json&role=admin", "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", resp.Status, resp.Error)
	assert.Equal(t, `{"name":"decoder/name/ok"}`, resp.Content)
}

func TestGetResource_YAML(t *testing.T) {
	a, _ := newTestAPI(t)

	_, resp := serve(t, a, "POST", "/catalog/resources/decoder",
		`{"format":"json","content":"{\"name\":\"decoder/name/ok\"}","role":"admin"}`)
	require.Equal(t, "OK", resp.Status, resp.Error)

	_, resp = serve(t, a, "GET", "/catalog/resource/decoder/name/ok?format=yaml&role=admin", "")
	require.Equal(t, "OK", resp.Status, resp.Error)
	assert.Equal(t, "name: decoder/name/ok", resp.Content)
}

func TestGetResource_Collection(t *testing.T) {
	a, _ := newTestAPI(t)

	for _, name := range []string{"decoder/a/0", "decoder/b/0"} {
		_, resp := serve(t, a, "POST", "/catalog/resources/decoder",
			`{"format":"json","content":"{\"name\":\"`+name+`\"}","role":"admin"}`)
		require.Equal(t, "OK", resp.Status, resp.Error)
	}

	_, resp := serve(t, a, "GET", "/catalog/resource/decoder?format=json&role=admin", "")
	require.Equal(t, "OK", resp.Status, resp.Error)
	assert.Equal(t, `["decoder/a/0","decoder/b/0"]`, resp.Content)
}

func TestGetResource_StoreError(t *testing.T) {
	a, store := newTestAPI(t)
	store.errs["decoder/name/fail"] = errors.New("error")

	w, resp := serve(t, a, "GET", "/catalog/resource/decoder/name/fail?format=json&role=admin", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ERROR", resp.Status)
	assert.Equal(t, "Content 'decoder/name/fail' could not be obtained from store: error", resp.Error)
}

func TestGetResource_InvalidFormat(t *testing.T) {
	a, store := newTestAPI(t)

	_, resp := serve(t, a, "GET", "/catalog/resource/decoder/name/ok?format=invalid&role=admin", "")
	assert.Equal(t, "ERROR", resp.Status)
	assert.Equal(t, "Missing or invalid /format parameter", resp.Error)
	assert.Zero(t, store.getCalls)
}

func TestGetResource_MissingParameters(t *testing.T) {
	a, _ := newTestAPI(t)

	_, resp := serve(t, a, "GET", "/catalog/resource/decoder/name/ok?role=admin", "")
	assert.Equal(t, "Missing or invalid /format parameter", resp.Error)

	_, resp = serve(t, a, "GET", "/catalog/resource/decoder/name/ok?format=json", "")
	assert.Equal(t, "Missing /role parameter", resp.Error)
}

func TestPostResource_InvalidType(t *testing.T) {
	a, _ := newTestAPI(t)

	_, resp := serve(t, a, "POST", "/catalog/resources/invalid",
		`{"format":"json","content":"{\"name\":\"decoder/name/ok\"}","role":"admin"}`)
	assert.Equal(t, "ERROR", resp.Status)
	assert.Equal(t, "Missing /type parameter or is invalid", resp.Error)
}

func TestPostResource_MissingParameters(t *testing.T) {
	a, _ := newTestAPI(t)

	_, resp := serve(t, a, "POST", "/catalog/resources/decoder",
		`{"content":"{\"name\":\"decoder/name/ok\"}","role":"admin"}`)
	assert.Equal(t, "Missing /format parameter or is invalid", resp.Error)

	_, resp = serve(t, a, "POST", "/catalog/resources/decoder",
		`{"format":"json","role":"admin"}`)
	assert.Equal(t, "Missing /content parameter", resp.Error)

	_, resp = serve(t, a, "POST", "/catalog/resources/decoder",
		`{"format":"json","content":"{\"name\":\"decoder/name/ok\"}"}`)
	assert.Equal(t, "Missing /role parameter", resp.Error)
}

func TestPostResource_PermissionDenied(t *testing.T) {
	a, store := newTestAPI(t)

	_, resp := serve(t, a, "POST", "/catalog/resources/decoder",
		`{"format":"json","content":"{\"name\":\"decoder/name/ok\"}","role":"viewer"}`)
	assert.Equal(t, "ERROR", resp.Status)
	assert.Equal(t, "Permission denied", resp.Error)
	assert.Empty(t, store.docs)
}

func TestGetResource_SystemPermissionDenied(t *testing.T) {
	a, store := newTestAPI(t)
	doc, err := core.DocumentFromJSON([]byte(`{"name":"decoder/system/0"}`))
	require.NoError(t, err)
	store.docs["decoder/system/0"] = doc

	_, resp := serve(t, a, "GET", "/catalog/resource/decoder/system/0?format=json&role=viewer", "")
	assert.Equal(t, "Permission denied", resp.Error)

	_, resp = serve(t, a, "GET", "/catalog/resource/decoder/system/0?format=json&role=analyst", "")
	assert.Equal(t, "OK", resp.Status, resp.Error)
}

func TestPutResource(t *testing.T) {
	a, _ := newTestAPI(t)

	_, resp := serve(t, a, "POST", "/catalog/resources/decoder",
		`{"format":"json","content":"{\"name\":\"decoder/name/ok\"}","role":"admin"}`)
	require.Equal(t, "OK", resp.Status, resp.Error)

	_, resp = serve(t, a, "PUT", "/catalog/resource/decoder/name/ok",
		`{"format":"json","content":"{\"name\":\"decoder/name/ok\",\"parse\":\"v2\"}","role":"admin"}`)
	require.Equal(t, "OK", resp.Status, resp.Error)

	_, resp = serve(t, a, "GET", "/catalog/resource/decoder/name/ok?format=json&role=admin", "")
	require.Equal(t, "OK", resp.Status, resp.Error)
	assert.Contains(t, resp.Content, `"parse":"v2"`)
}

func TestPutResource_Collection(t *testing.T) {
	a, _ := newTestAPI(t)

	_, resp := serve(t, a, "PUT", "/catalog/resource/decoder",
		`{"format":"json","content":"{\"name\":\"decoder/name/ok\"}","role":"admin"}`)
	assert.Equal(t, "ERROR", resp.Status)
	assert.Equal(t, "Invalid resource type 'collection' for PUT operation", resp.Error)
}

func TestDeleteResource(t *testing.T) {
	a, store := newTestAPI(t)

	_, resp := serve(t, a, "POST", "/catalog/resources/decoder",
		`{"format":"json","content":"{\"name\":\"decoder/name/ok\"}","role":"admin"}`)
	require.Equal(t, "OK", resp.Status, resp.Error)

	_, resp = serve(t, a, "DELETE", "/catalog/resource/decoder/name/ok?role=admin", "")
	require.Equal(t, "OK", resp.Status, resp.Error)
	assert.Empty(t, store.docs)

	_, resp = serve(t, a, "DELETE", "/catalog/resource/decoder/name/ok?role=admin", "")
	assert.Equal(t, "ERROR", resp.Status)
}

func TestDeleteResource_MissingRole(t *testing.T) {
	a, _ := newTestAPI(t)

	_, resp := serve(t, a, "DELETE", "/catalog/resource/decoder/name/ok", "")
	assert.Equal(t, "Missing /role parameter", resp.Error)
}

func TestValidateResource(t *testing.T) {
	a, store := newTestAPI(t)

	_, resp := serve(t, a, "POST", "/catalog/resource/decoder/name/ok/validate",
		`{"format":"json","content":"{\"name\":\"decoder/name/ok\"}","role":"admin"}`)
	require.Equal(t, "OK", resp.Status, resp.Error)
	assert.Empty(t, store.docs)
}

func TestValidateResource_Invalid(t *testing.T) {
	a, _ := newTestAPI(t)

	// Content name disagrees with the resource name.
	_, resp := serve(t, a, "POST", "/catalog/resource/decoder/name/ok/validate",
		`{"format":"json","content":"{\"name\":\"decoder/other/0\"}","role":"admin"}`)
	assert.Equal(t, "ERROR", resp.Status)
}

func TestInvalidRequestBody(t *testing.T) {
	a, _ := newTestAPI(t)

	w, resp := serve(t, a, "POST", "/catalog/resources/decoder", `{not json`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ERROR", resp.Status)
	assert.Contains(t, resp.Error, "Invalid request body")
}

func TestHealthCheck(t *testing.T) {
	a, _ := newTestAPI(t)

	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
