package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Serve binds host:port, runs the start hooks, then serves until ctx is
// cancelled. Shutdown drains in-flight requests and runs the stop hooks.
// A bind or start-hook failure is returned without ever accepting traffic.
func (a *Application) Serve(ctx context.Context, host string, port int) error {
	a.mu.Lock()
	if a.started || a.state != StateBuilt {
		a.mu.Unlock()
		return ErrServeStarted
	}
	a.started = true
	a.mu.Unlock()

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		a.setState(StateTerminated)
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	a.mu.Lock()
	a.addr = ln.Addr()
	a.mu.Unlock()
	logrus.Infof("%s %s bound to %s", a.meta.Title, a.meta.Version, ln.Addr())

	if err := a.runStart(ctx); err != nil {
		ln.Close()
		stopErr := a.runStop()
		a.setState(StateTerminated)
		return errors.Join(fmt.Errorf("startup: %w", err), stopErr)
	}

	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	a.setState(StateServing)
	close(a.ready)
	logrus.Infof("serving on %s", ln.Addr())

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logrus.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			runErr = fmt.Errorf("server shutdown: %w", err)
		}
		cancel()
		<-serveErr
	}

	stopErr := a.runStop()
	a.setState(StateTerminated)
	logrus.Info("server down")
	return errors.Join(runErr, stopErr)
}

func (a *Application) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func (a *Application) hooks() (start, stop []Hook) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Hook(nil), a.onStart...), append([]Hook(nil), a.onStop...)
}

// runStart runs start hooks one after another; the first failure stops the sequence.
func (a *Application) runStart(ctx context.Context) error {
	start, _ := a.hooks()
	for i, h := range start {
		if err := h(ctx); err != nil {
			return fmt.Errorf("start hook %d: %w", i, err)
		}
	}
	return nil
}

// runStop runs every stop hook, last registered first, and joins their errors.
func (a *Application) runStop() error {
	_, stop := a.hooks()
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(stop) - 1; i >= 0; i-- {
		if err := stop[i](ctx); err != nil {
			logrus.WithError(err).Errorf("stop hook %d failed", i)
			errs = append(errs, fmt.Errorf("stop hook %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
