package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"userapi/internal/pkg"
)

// @title FastAPI Backend
// @version 1.0.0
// @description A modern Python API built with FastAPI
// @BasePath /

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logrus.Info("Application start!")
	if err := pkg.App(ctx); err != nil {
		logrus.Fatalf("application failed: %v", err)
	}
	logrus.Info("Application terminated!")
}
