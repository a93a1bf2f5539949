/*
 * Copyright (c) 2026, the KeyReg authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
 * implied. See the License for the specific language governing
 * permissions and limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/keyreg-io/keyreg/pkg/api/handlers"
	"github.com/keyreg-io/keyreg/pkg/cache"
	"github.com/keyreg-io/keyreg/pkg/config"
	"github.com/keyreg-io/keyreg/pkg/envelope"
	"github.com/keyreg-io/keyreg/pkg/logger"
	"github.com/keyreg-io/keyreg/pkg/metrics"
	"github.com/keyreg-io/keyreg/pkg/objstore"
)

func main() {
	configPath := flag.String("config", "config/config.toml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	kr := &cfg.KeyRegistry

	log, err := logger.NewLogger(logger.Config{
		Level:  kr.Logging.Level,
		Format: kr.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting key registry server",
		zap.String("config_file", *configPath),
		zap.String("storage_type", kr.Storage.Type),
		zap.Bool("encryption_enabled", kr.Storage.EncryptionSecret != ""),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	var store objstore.Store
	switch kr.Storage.Type {
	case "s3":
		store, err = objstore.NewS3Store(ctx, objstore.S3Config{
			Bucket:   kr.Storage.S3.Bucket,
			Key:      kr.Storage.S3.ObjectKey,
			Region:   kr.Storage.S3.Region,
			Endpoint: kr.Storage.S3.Endpoint,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize S3 store", zap.Error(err))
		}
	case "memory":
		log.Warn("Running with in-memory storage; the registry is not durable")
		store = objstore.NewMemoryStore()
	default:
		log.Fatal("Unknown storage type", zap.String("type", kr.Storage.Type))
	}

	codec, err := envelope.NewCodec(kr.Storage.EncryptionSecret)
	if err != nil {
		log.Fatal("Failed to initialize envelope codec", zap.Error(err))
	}

	// Metrics must be configured before any metric is touched
	metrics.SetEnabled(kr.Metrics.Enabled)
	metrics.Init()

	keyCache := cache.New(store, codec, log)

	// A failed initial load is fatal: serving with an empty cache would
	// reject every credential while the registry may be populated
	count, err := keyCache.Load(ctx)
	cancel()
	if err != nil {
		log.Fatal("Failed to load registry on startup", zap.Error(err))
	}
	metrics.RegistryKeys.Set(float64(count))
	log.Info("Registry loaded", zap.Int("keys", count))

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	apiServer := handlers.NewAPIServer(keyCache, log)
	router := handlers.SetupRouter(apiServer, log)

	var metricsServer *metrics.Server
	if kr.Metrics.Enabled {
		metricsServer = metrics.NewServer(&kr.Metrics, log)
		if err := metricsServer.Start(); err != nil {
			log.Fatal("Failed to start metrics server", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", kr.Server.Host, kr.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down key registry server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			log.Error("Metrics server forced to shutdown", zap.Error(err))
		}
	}

	log.Info("Key registry server stopped")
}
