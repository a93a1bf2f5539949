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

var getKeyID string

var keyGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show one key from the registry",
	Long:  "Displays a single key by ID. The secret is never displayed.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runKeyGetCommand(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	keyGetCmd.Flags().StringVar(&getKeyID, "id", "", "Key ID to show")
	keyGetCmd.MarkFlagRequired("id")
}

func runKeyGetCommand(cmd *cobra.Command) error {
	ctx := cmd.Context()

	manager, _, err := newManager(ctx)
	if err != nil {
		return err
	}

	record, err := manager.Get(ctx, getKeyID)
	if err != nil {
		if models.IsKeyNotFoundError(err) {
			return fmt.Errorf("key %q not found", getKeyID)
		}
		return fmt.Errorf("failed to read registry: %w", err)
	}

	fmt.Printf("ID:         %s\n", record.ID)
	fmt.Printf("Name:       %s\n", record.Name)
	fmt.Printf("Type:       %s\n", record.SecretType)
	fmt.Printf("Created at: %s\n", record.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Expires at: %s\n", expiryColumn(record))
	for k, v := range record.Metadata {
		fmt.Printf("Metadata:   %s=%s\n", k, v)
	}

	return nil
}
