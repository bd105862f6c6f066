//go:build mage

// Package main provides build targets for the componentry project using Mage.
//
// Usage:
//
//	mage build      Compile componentry binary to bin/
//	mage test       Run all tests
//	mage golden     Regenerate golden files
//	mage lint       Run golangci-lint
//	mage clean      Remove build artifacts
//	mage install    Install componentry to GOPATH/bin
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "componentry"
	binaryDir  = "bin"
	cmdDir     = "./cmd/componentry"
	versionVar = "github.com/mesh-intelligence/componentry/internal/cli.Version"
)

// version returns the release version from the VERSION env var, falling
// back to the nearest git tag.
func version() string {
	if v := os.Getenv("VERSION"); v != "" {
		return strings.TrimPrefix(v, "v")
	}
	tag, err := sh.Output("git", "describe", "--tags", "--abbrev=0")
	if err != nil || tag == "" {
		return ""
	}
	return strings.TrimPrefix(tag, "v")
}

func ldflags() string {
	v := version()
	if v == "" {
		return ""
	}
	return "-X " + versionVar + "=" + v
}

// Build compiles the componentry binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if flags := ldflags(); flags != "" {
		args = append(args, "-ldflags", flags)
	}
	return sh.RunV("go", append(args, cmdDir)...)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Golden regenerates the CLI golden files.
func Golden() error {
	return sh.RunV("go", "test", "./internal/cli/", "-run", "Golden", "-update")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
