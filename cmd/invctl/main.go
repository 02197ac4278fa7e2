// Package main is the entry point for the invctl CLI client.
package main

import (
	"github.com/donaldgifford/pos-inventory-dashboard/cmd/invctl/cmd"
)

func main() {
	cmd.Execute()
}
