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
)

// CliName is the name of the administrative tool
const CliName = "keyregctl"

var (
	flagConfig        string
	flagBucket        string
	flagObjectKey     string
	flagRegion        string
	flagEndpoint      string
	flagStorageSecret string
	flagRefreshURL    string
	flagNoRefresh     bool
)

var rootCmd = &cobra.Command{
	Use:   CliName,
	Short: CliName + " manages the API key registry",
	Long:  CliName + " creates, lists and deletes API keys in the registry and signals running servers to refresh their caches.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to a TOML config file")
	pf.StringVar(&flagBucket, "bucket", "", "S3 bucket holding the registry object")
	pf.StringVar(&flagObjectKey, "object-key", "", "Object key of the registry document")
	pf.StringVar(&flagRegion, "region", "", "AWS region of the bucket")
	pf.StringVar(&flagEndpoint, "endpoint", "", "Custom S3 endpoint (for S3-compatible stores)")
	pf.StringVar(&flagStorageSecret, "storage-secret", "", "Secret for registry encryption at rest")
	pf.StringVar(&flagRefreshURL, "refresh-url", "", "Base URL of a running server to refresh after mutations")
	pf.BoolVar(&flagNoRefresh, "no-refresh", false, "Skip the refresh signal after mutations")

	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(refreshCmd)
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
