//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every test with the race detector, which needs cgo.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withEnv("CGO_ENABLED=1"), withStream())
	return err
}

// Runs the tests of the engine core only, without the desktop host.
func (Test) Engine() error {
	_, err := executeCmd("go", withArgs("test", "./engine/", "./engine/core/...", "./engine/loop/...",
		"./engine/platform/", "./engine/renderer/", "./engine/renderer/raster/", "./engine/math/...",
		"./engine/resources/...", "./engine/assets/...", "./engine/systems/..."),
		withStream())
	return err
}

// Writes a coverage profile and opens it in the browser.
func (Test) Cover() error {
	if _, err := executeCmd("go", withArgs("test", "-coverprofile=coverage.out", "./..."), withStream()); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("tool", "cover", "-html=coverage.out"))
	return err
}
