// cmd/bustmap/main.go
package main

import (
	"os"

	"github.com/dalemusser/cachebuster/internal/bustmap"
)

func main() {
	os.Exit(bustmap.Run("bustmap", os.Args[1:], os.Stdout, os.Stderr))
}
