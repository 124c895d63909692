//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed. KANVAS_CONFIG points at an optional TOML config file.
func (Run) Testbed() error {
	args := []string{"run", "."}
	if path := os.Getenv("KANVAS_CONFIG"); path != "" {
		args = append(args, path)
	}
	fmt.Println("Run testbed...")
	if _, err := executeCmd("go", withArgs(args...), withStream()); err != nil {
		return err
	}
	return nil
}
