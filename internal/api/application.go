package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"

	"userapi/docs"
)

// Metadata describes the service in logs and in the API docs.
type Metadata struct {
	Title       string
	Description string
	Version     string
}

var DefaultMetadata = Metadata{
	Title:       "FastAPI Backend",
	Description: "A modern Python API built with FastAPI",
	Version:     "1.0.0",
}

// State is the lifecycle position of an Application.
type State int

const (
	StateUnbuilt State = iota
	StateBuilt
	StateServing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateServing:
		return "serving"
	case StateTerminated:
		return "terminated"
	default:
		return "unbuilt"
	}
}

// Router is a set of routes that can be mounted under a path prefix.
type Router interface {
	Register(rg *gin.RouterGroup)
}

// Hook is a lifecycle callback. Start hooks run before the first request is
// accepted, stop hooks after the accept loop halts.
type Hook func(ctx context.Context) error

var (
	ErrNilRouter    = errors.New("router is nil")
	ErrServeStarted = errors.New("application already started serving")
)

type Option func(*Application)

// WithShutdownTimeout bounds graceful shutdown of in-flight requests and the stop hooks.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *Application) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}

// Application is the process-wide service instance: middleware chain, route
// table and lifecycle hooks. It is built once and passed around explicitly.
type Application struct {
	meta            Metadata
	engine          *gin.Engine
	handler         http.Handler
	shutdownTimeout time.Duration

	mu      sync.Mutex
	state   State
	started bool
	onStart []Hook
	onStop  []Hook
	addr    net.Addr
	ready   chan struct{}

	cors atomic.Pointer[corsHeaders]
}

// Build creates the application with an empty route table. The middleware
// chain is fixed here: panic recovery, request ids and request logging. The
// CORS wrapper around the engine stays inert until ConfigureCORS sets a policy.
func Build(meta Metadata, opts ...Option) *Application {
	a := &Application{
		meta:            meta,
		engine:          gin.New(),
		shutdownTimeout: 15 * time.Second,
		state:           StateBuilt,
		ready:           make(chan struct{}),
	}
	a.engine.Use(gin.Recovery(), requestID(), requestLogger())
	a.handler = a.withCORS(a.engine)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Application) Metadata() Metadata { return a.meta }

func (a *Application) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Handler exposes the CORS wrapper, middleware chain and routes.
func (a *Application) Handler() http.Handler { return a.handler }

// Addr is the bound listener address, nil until Serve has bound the socket.
func (a *Application) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Ready is closed once every start hook returned and requests are accepted.
func (a *Application) Ready() <-chan struct{} { return a.ready }

func (a *Application) checkMutable() error {
	if a.started || a.state != StateBuilt {
		return ErrServeStarted
	}
	return nil
}

// MountRouter registers every route of r under prefix.
func (a *Application) MountRouter(r Router, prefix string) error {
	if r == nil {
		return ErrNilRouter
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkMutable(); err != nil {
		return err
	}
	r.Register(a.engine.Group(prefix))
	return nil
}

// EnableDocs serves the Swagger UI at /swagger/*any. The document is a copy of
// docs.SwaggerInfo titled with this application's metadata and registered
// under its own swag instance name; the package default is left untouched.
func (a *Application) EnableDocs() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkMutable(); err != nil {
		return err
	}
	spec := *docs.SwaggerInfo
	spec.Title = a.meta.Title
	spec.Description = a.meta.Description
	spec.Version = a.meta.Version
	spec.InfoInstanceName = "userapi-" + uuid.NewString()
	swag.Register(spec.InstanceName(), &spec)

	a.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.InstanceName(spec.InstanceName())))
	return nil
}

// OnStart appends a hook run, in registration order, before traffic is accepted.
func (a *Application) OnStart(h Hook) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkMutable(); err != nil {
		return err
	}
	a.onStart = append(a.onStart, h)
	return nil
}

// OnStop appends a hook run, in reverse registration order, after the accept loop halts.
func (a *Application) OnStop(h Hook) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkMutable(); err != nil {
		return err
	}
	a.onStop = append(a.onStop, h)
	return nil
}
