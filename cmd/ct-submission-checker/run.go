// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"os"

	"github.com/H0llyW00dzZ/ct-submission-checker/src/cli"
	"github.com/H0llyW00dzZ/ct-submission-checker/src/logger"
	verpkg "github.com/H0llyW00dzZ/ct-submission-checker/src/version"
)

var version string // set by ldflags or defaults to imported version

func init() {
	if version == "" {
		version = verpkg.Version
	}
}

func main() {
	log := logger.NewCLILogger()

	if err := cli.Execute(version, log); err != nil {
		// Cobra already printed the error; the exit code carries the outcome.
		os.Exit(1)
	}
}
