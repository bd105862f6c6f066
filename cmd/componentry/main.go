// Package main is the componentry CLI entry point.
package main

import "github.com/mesh-intelligence/componentry/internal/cli"

func main() {
	cli.Execute()
}
