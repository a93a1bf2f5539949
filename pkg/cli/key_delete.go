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

	"github.com/keyreg-io/keyreg/pkg/models"
)

const keyDeleteExample = `# Revoke a key
keyregctl key delete --id key_5f2b... --confirm`

var (
	deleteKeyID   string
	deleteConfirm bool
)

var keyDeleteCmd = &cobra.Command{
	Use:     "delete",
	Short:   "Delete a key from the registry",
	Long:    "Removes a key from the registry by ID. Requires --confirm to prevent accidental revocations.",
	Example: keyDeleteExample,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runKeyDeleteCommand(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	keyDeleteCmd.Flags().StringVar(&deleteKeyID, "id", "", "Key ID to delete")
	keyDeleteCmd.Flags().BoolVar(&deleteConfirm, "confirm", false, "Confirm deletion")
	keyDeleteCmd.MarkFlagRequired("id")
	keyDeleteCmd.MarkFlagRequired("confirm")
}

func runKeyDeleteCommand(cmd *cobra.Command) error {
	ctx := cmd.Context()

	if !deleteConfirm {
		return fmt.Errorf("deletion not confirmed: pass --confirm to delete the key")
	}

	manager, cfg, err := newManager(ctx)
	if err != nil {
		return err
	}

	if err := manager.Delete(ctx, deleteKeyID); err != nil {
		if models.IsKeyNotFoundError(err) {
			return fmt.Errorf("key %q not found", deleteKeyID)
		}
		return fmt.Errorf("failed to delete key: %w", err)
	}

	fmt.Println("Key deleted.")

	signalRefresh(ctx, cfg)
	return nil
}
