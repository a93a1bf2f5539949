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
	"time"

	"github.com/spf13/cobra"

	"github.com/keyreg-io/keyreg/pkg/models"
)

var keyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all keys in the registry",
	Long:  "Lists every key in the registry. Secrets are never displayed.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runKeyListCommand(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func expiryColumn(record *models.KeyRecord) string {
	if record.ExpiresAt == nil {
		return "never"
	}
	if record.Expired(time.Now()) {
		return record.ExpiresAt.Format(time.RFC3339) + " (expired)"
	}
	return record.ExpiresAt.Format(time.RFC3339)
}

func runKeyListCommand(cmd *cobra.Command) error {
	ctx := cmd.Context()

	manager, _, err := newManager(ctx)
	if err != nil {
		return err
	}

	keys, err := manager.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	if len(keys) == 0 {
		fmt.Println("No keys in the registry.")
		return nil
	}

	headers := []string{"ID", "NAME", "CREATED_AT", "EXPIRES_AT"}
	rows := make([][]string, 0, len(keys))
	for i := range keys {
		record := &keys[i]
		rows = append(rows, []string{
			record.ID,
			record.Name,
			record.CreatedAt.Format(time.RFC3339),
			expiryColumn(record),
		})
	}
	printTable(headers, rows)

	return nil
}
