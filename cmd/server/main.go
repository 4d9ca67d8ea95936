package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bus_tracker/internal/config"
	"bus_tracker/internal/controllers"
	"bus_tracker/internal/logger"
	"bus_tracker/internal/middleware"
	"bus_tracker/internal/routes"
	"bus_tracker/internal/store"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging to file
	if err := logger.Setup(logger.Options{
		Level:  settings.LogLevel,
		File:   settings.LogFile,
		Stdout: settings.LogStdout,
	}); err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	if settings.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to the database
	db, err := config.OpenDB(context.Background(), settings)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer config.Close(db)

	auth := middleware.NewAuth(settings.JWTSecret)
	if !auth.Enabled() {
		logrus.Warn("JWT_SECRET is empty, write endpoints are disabled")
	}
	h := controllers.New(store.New(db), auth, settings.AdminPasswordHash)
	r := routes.SetupRouter(h, auth, routes.Options{
		CORSOrigins: settings.CORSOrigins,
		RequestLog:  true,
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Server running at :%s", settings.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	logrus.Info("Server exited")
}
