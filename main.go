// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"rhythm/cmd"
	"rhythm/internal/log"
	"rhythm/pkg/build"
)

// main loads .env, records build information and hands over to the CLI.
func main() {
	// A missing .env is normal; ENV_* overrides may come from the shell.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to load .env: %v", err)
	}

	// Development builds run without ldflags and keep the defaults.
	if err := build.Initialize(); err != nil {
		log.Debugf("build info: %v", err)
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
