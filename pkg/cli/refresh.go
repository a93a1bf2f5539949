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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyreg-io/keyreg/pkg/refresh"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Signal a running server to reload its registry cache",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRefreshCommand(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func runRefreshCommand(cmd *cobra.Command) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	baseURL := cfg.KeyRegistry.Admin.RefreshURL
	if baseURL == "" {
		return fmt.Errorf("no refresh URL configured; set --refresh-url or admin.refresh_url")
	}

	client := refresh.NewClient(cfg.KeyRegistry.Admin.RefreshTimeout)
	count, err := client.Trigger(cmd.Context(), baseURL)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	fmt.Printf("Server refreshed (%d keys loaded).\n", count)
	return nil
}
