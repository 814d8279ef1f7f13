// Package main is the entry point for the OEE dashboard.
package main

import "github.com/j-veylop/oee-dashboard-tui/internal/cli"

func main() {
	cli.Execute()
}
