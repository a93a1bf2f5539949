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
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyreg-io/keyreg/pkg/models"
)

const keyCreateExample = `# Create a key for a CI pipeline, expiring in 90 days
keyregctl key create --name ci-pipeline --expires-in 2160h --metadata team=infra`

var (
	createName      string
	createExpiresIn time.Duration
	createMetadata  []string
)

var keyCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a new API key",
	Long:    "Generates a new API key, commits it to the registry and prints the secret. The secret is shown exactly once and cannot be recovered afterwards.",
	Example: keyCreateExample,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runKeyCreateCommand(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	keyCreateCmd.Flags().StringVar(&createName, "name", "", "Human-readable name for the key")
	keyCreateCmd.Flags().DurationVar(&createExpiresIn, "expires-in", 0, "Lifetime of the key (e.g. 720h); zero means no expiry")
	keyCreateCmd.Flags().StringArrayVar(&createMetadata, "metadata", nil, "Metadata entry as key=value; repeatable")
	keyCreateCmd.MarkFlagRequired("name")
}

func parseMetadata(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(entries))
	for _, entry := range entries {
		k, v, ok := strings.Cut(entry, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata entry %q: expected key=value", entry)
		}
		meta[k] = v
	}
	return meta, nil
}

func runKeyCreateCommand(cmd *cobra.Command) error {
	ctx := cmd.Context()

	meta, err := parseMetadata(createMetadata)
	if err != nil {
		return err
	}

	var expiresAt *time.Time
	if createExpiresIn > 0 {
		t := time.Now().UTC().Add(createExpiresIn)
		expiresAt = &t
	}

	manager, cfg, err := newManager(ctx)
	if err != nil {
		return err
	}

	record, err := manager.Create(ctx, createName, meta, models.SecretTypeSharedSecret, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to create key: %w", err)
	}

	fmt.Printf("Key created.\n\n")
	fmt.Printf("  ID:     %s\n", record.ID)
	fmt.Printf("  Name:   %s\n", record.Name)
	fmt.Printf("  Secret: %s\n", record.Secret)
	if record.ExpiresAt != nil {
		fmt.Printf("  Expires: %s\n", record.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Printf("\nStore the secret now; it cannot be shown again.\n")

	signalRefresh(ctx, cfg)
	return nil
}
