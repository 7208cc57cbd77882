//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the pantry project using Mage.
//
// Usage:
//
//	mage build      Compile the pantry binary to bin/
//	mage test:all   Run every test
//	mage test:unit  Run tests in short mode
//	mage lint       Run golangci-lint
//	mage clean      Remove build artifacts
//	mage install    Install pantry to GOPATH/bin
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "pantry"
	binaryDir  = "bin"
	cmdDir     = "./cmd/pantry"
)

// Build compiles the pantry binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", versionLDFlags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// versionLDFlags stamps the git describe output into cli.Version. Outside a
// git checkout the default version is kept.
func versionLDFlags() string {
	desc, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || desc == "" {
		return ""
	}
	return "-X github.com/mesh-intelligence/pantry/internal/cli.Version=" + strings.TrimPrefix(desc, "v")
}
