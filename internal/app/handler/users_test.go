package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcfg "userapi/internal/app/config"
	appdb "userapi/internal/app/db"
	"userapi/internal/app/ds"
	"userapi/internal/app/redis"
	"userapi/internal/app/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRepository(t *testing.T) *repository.Repository {
	t.Helper()
	var cfg appcfg.Config
	cfg.DB.URL = "sqlite://" + filepath.Join(t.TempDir(), "handler.db")
	gormDB, err := appdb.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, appdb.EnsureSchema(context.Background(), gormDB, repository.Models()...))
	t.Cleanup(func() { appdb.Close(gormDB) })

	repo, err := repository.NewRepository(gormDB)
	require.NoError(t, err)
	return repo
}

func newTestRouter(h *Handler) *gin.Engine {
	r := gin.New()
	h.Register(r.Group("/api/v1"))
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestUsersCRUD(t *testing.T) {
	r := newTestRouter(NewHandler(newTestRepository(t), nil))

	w := do(t, r, http.MethodPost, "/api/v1/users/", gin.H{"email": "jane@example.com", "name": "Jane"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[ds.User](t, w)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.True(t, created.IsActive)
	path := "/api/v1/users/" + strconv.FormatInt(created.ID, 10)

	w = do(t, r, http.MethodGet, "/api/v1/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]ds.User](t, w), 1)

	w = do(t, r, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[ds.User](t, w).ID)

	w = do(t, r, http.MethodPut, path, gin.H{"name": "Janet", "is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[ds.User](t, w)
	assert.Equal(t, "Janet", updated.Name)
	assert.False(t, updated.IsActive)
	assert.NotNil(t, updated.UpdatedAt)

	w = do(t, r, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"User deleted successfully"}`, w.Body.String())

	w = do(t, r, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
}

func TestCreateUser_Validation(t *testing.T) {
	r := newTestRouter(NewHandler(newTestRepository(t), nil))

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing email", gin.H{"name": "Jane"}},
		{"bad email", gin.H{"email": "not-an-email", "name": "Jane"}},
		{"missing name", gin.H{"email": "jane@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/users/", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUser_EmptyName(t *testing.T) {
	r := newTestRouter(NewHandler(newTestRepository(t), nil))

	w := do(t, r, http.MethodPost, "/api/v1/users/", gin.H{"email": "jane@example.com", "name": "Jane"})
	require.Equal(t, http.StatusCreated, w.Code)
	path := "/api/v1/users/" + strconv.FormatInt(decode[ds.User](t, w).ID, 10)

	w = do(t, r, http.MethodPut, path, gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid input: name must not be empty"}`, w.Body.String())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	r := newTestRouter(NewHandler(newTestRepository(t), nil))

	w := do(t, r, http.MethodPost, "/api/v1/users", gin.H{"email": "jane@example.com", "name": "Jane"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/users", gin.H{"email": "jane@example.com", "name": "Jane 2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Email already registered"}`, w.Body.String())
}

func TestListUsers_Query(t *testing.T) {
	r := newTestRouter(NewHandler(newTestRepository(t), nil))
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/v1/users/", gin.H{"email": email, "name": "x"}).Code)
	}

	w := do(t, r, http.MethodGet, "/api/v1/users/?skip=1&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[[]ds.User](t, w)
	require.Len(t, page, 1)
	assert.Equal(t, "b@example.com", page[0].Email)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/v1/users/?skip=-1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/v1/users/?limit=abc", nil).Code)
}

func TestUserByID_BadID(t *testing.T) {
	r := newTestRouter(NewHandler(newTestRepository(t), nil))

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := do(t, r, method, "/api/v1/users/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, method)
	}
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/api/v1/users/12", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPut, "/api/v1/users/12", gin.H{"name": "x"}).Code)
}

func TestGetUser_ReadThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	var cfg appcfg.Config
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.DialTimeout = 1
	cfg.Redis.ReadTimeout = 1
	cfg.Redis.TTL = 60
	cache, err := redis.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	r := newTestRouter(NewHandler(newTestRepository(t), cache))

	w := do(t, r, http.MethodPost, "/api/v1/users/", gin.H{"email": "jane@example.com", "name": "Jane"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[ds.User](t, w)
	key := "user:" + strconv.FormatInt(created.ID, 10)
	path := "/api/v1/users/" + strconv.FormatInt(created.ID, 10)

	require.Equal(t, http.StatusOK, do(t, r, http.MethodGet, path, nil).Code)
	require.True(t, mr.Exists(key))

	// a cached entry wins over the database
	stale := created
	stale.Name = "From Cache"
	raw, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, mr.Set(key, string(raw)))
	w = do(t, r, http.MethodGet, path, nil)
	assert.Equal(t, "From Cache", decode[ds.User](t, w).Name)

	require.Equal(t, http.StatusOK, do(t, r, http.MethodPut, path, gin.H{"name": "Janet"}).Code)
	assert.False(t, mr.Exists(key))
	w = do(t, r, http.MethodGet, path, nil)
	assert.Equal(t, "Janet", decode[ds.User](t, w).Name)

	require.Equal(t, http.StatusOK, do(t, r, http.MethodDelete, path, nil).Code)
	assert.False(t, mr.Exists(key))
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, path, nil).Code)
}
