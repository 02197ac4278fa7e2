// Package main is the entry point for the inventory dashboard server.
package main

import (
	"os"

	"github.com/donaldgifford/pos-inventory-dashboard/cmd/inventory-dashboard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
