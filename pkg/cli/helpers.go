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

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/keyreg-io/keyreg/pkg/config"
	"github.com/keyreg-io/keyreg/pkg/envelope"
	"github.com/keyreg-io/keyreg/pkg/logger"
	"github.com/keyreg-io/keyreg/pkg/objstore"
	"github.com/keyreg-io/keyreg/pkg/refresh"
	"github.com/keyreg-io/keyreg/pkg/registry"
)

// loadSettings resolves configuration from file, environment and flags;
// flags win
func loadSettings() (*config.Config, error) {
	cfg, err := config.LoadRaw(flagConfig)
	if err != nil {
		return nil, err
	}

	kr := &cfg.KeyRegistry
	if flagBucket != "" {
		kr.Storage.S3.Bucket = flagBucket
	}
	if flagObjectKey != "" {
		kr.Storage.S3.ObjectKey = flagObjectKey
	}
	if flagRegion != "" {
		kr.Storage.S3.Region = flagRegion
	}
	if flagEndpoint != "" {
		kr.Storage.S3.Endpoint = flagEndpoint
	}
	if flagStorageSecret != "" {
		kr.Storage.EncryptionSecret = flagStorageSecret
	}
	if flagRefreshURL != "" {
		kr.Admin.RefreshURL = flagRefreshURL
	}

	return cfg, nil
}

// newManager builds a registry manager against the configured store
func newManager(ctx context.Context) (*registry.Manager, *config.Config, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	kr := &cfg.KeyRegistry

	// The CLI logs its own output; keep the library logger quiet unless
	// something goes wrong
	log, err := logger.NewLogger(logger.Config{Level: "warn", Format: "console"})
	if err != nil {
		return nil, nil, err
	}

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
			return nil, nil, fmt.Errorf("failed to initialize S3 store: %w", err)
		}
	case "memory":
		return nil, nil, fmt.Errorf("memory storage holds no durable registry; point %s at an S3 bucket", CliName)
	default:
		return nil, nil, fmt.Errorf("unknown storage type: %q", kr.Storage.Type)
	}

	codec, err := envelope.NewCodec(kr.Storage.EncryptionSecret)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize envelope codec: %w", err)
	}

	return registry.NewManager(store, codec, log), cfg, nil
}

// signalRefresh asks a running server to reload its cache. Failures are
// warnings: the mutation is already durable in the object store.
func signalRefresh(ctx context.Context, cfg *config.Config) {
	if flagNoRefresh {
		return
	}
	baseURL := cfg.KeyRegistry.Admin.RefreshURL
	if baseURL == "" {
		return
	}

	client := refresh.NewClient(cfg.KeyRegistry.Admin.RefreshTimeout)
	count, err := client.Trigger(ctx, baseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: server refresh failed (%v); the server picks up the change on its next refresh or restart\n", err)
		return
	}
	fmt.Printf("Server refreshed (%d keys loaded).\n", count)
}
