package pkg

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userapi/internal/api"
	appcfg "userapi/internal/app/config"
	appdb "userapi/internal/app/db"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) appcfg.Config {
	t.Helper()
	var cfg appcfg.Config
	cfg.App.Host = "127.0.0.1"
	cfg.App.ShutdownTimeout = 2
	cfg.DB.URL = "sqlite://" + filepath.Join(t.TempDir(), "app.db")
	return cfg
}

func serve(t *testing.T, app *api.Application) (string, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, "127.0.0.1", 0) }()

	select {
	case <-app.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("serve failed: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("not ready")
	}
	return "http://" + app.Addr().String(), func() {
		cancel()
		assert.NoError(t, <-done)
	}
}

func TestNew_ServesUsers(t *testing.T) {
	app, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	base, stop := serve(t, app)
	defer stop()

	// tables exist once ready
	body := bytes.NewBufferString(`{"email":"ann@example.com","name":"Ann"}`)
	resp, err := http.Post(base+"/api/v1/users/", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var created map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "ann@example.com", created["email"])

	resp2, err := http.Get(base + "/")
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()
	assert.JSONEq(t, `{"message":"FastAPI Backend is running!"}`, string(raw))

	resp3, err := http.Get(base + "/swagger/doc.json")
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusOK, resp3.StatusCode)
}

func TestNew_SchemaSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	base, stop := serve(t, app)
	resp, err := http.Post(base+"/api/v1/users", "application/json",
		bytes.NewBufferString(`{"email":"bob@example.com","name":"Bob"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	stop()

	app, err = New(context.Background(), cfg)
	require.NoError(t, err)
	base, stop = serve(t, app)
	defer stop()

	resp, err = http.Get(base + "/api/v1/users/")
	require.NoError(t, err)
	defer resp.Body.Close()
	var users []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	require.Len(t, users, 1)
	assert.Equal(t, "bob@example.com", users[0]["email"])
}

func TestNew_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.DialTimeout = 1
	cfg.Redis.ReadTimeout = 1
	cfg.Redis.TTL = 60

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	base, stop := serve(t, app)
	defer stop()

	resp, err := http.Post(base+"/api/v1/users/", "application/json",
		bytes.NewBufferString(`{"email":"cy@example.com","name":"Cy"}`))
	require.NoError(t, err)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	resp, err = http.Get(base + "/api/v1/users/" + strconv.FormatInt(created.ID, 10))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, mr.Exists("user:"+strconv.FormatInt(created.ID, 10)))
}

func TestNew_Failures(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.URL = "mysql://localhost/app"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Redis.Addr = "127.0.0.1:1"
	cfg.Redis.DialTimeout = 1
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}


func TestWire_Errors(t *testing.T) {
	cfg := testConfig(t)
	gormDB, err := appdb.Connect(cfg)
	require.NoError(t, err)
	defer appdb.Close(gormDB)

	app := api.Build(api.DefaultMetadata)
	assert.ErrorIs(t, wire(app, nil, gormDB, nil), api.ErrNilRouter)

	// a served app refuses further wiring
	app = api.Build(api.DefaultMetadata)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, app.Serve(ctx, "127.0.0.1", 0))
	assert.ErrorIs(t, wire(app, stubRouter{}, gormDB, nil), api.ErrServeStarted)
}

type stubRouter struct{}

func (stubRouter) Register(*gin.RouterGroup) {}
