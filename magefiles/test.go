//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Packages that build without cgo and run without a GPU or a display.
var pureGoPackages = []string{
	"./engine/containers/...",
	"./engine/core/...",
	"./engine/math/...",
	"./engine/assets/...",
	"./engine/systems/...",
	"./engine/renderer",
	"./engine/renderer/commands/...",
	"./engine/renderer/headless/...",
	"./engine/renderer/metadata/...",
	"./engine/renderer/profiler/...",
	"./cmd/...",
}

// Runs the unit tests with the race detector.
func (Test) All() error {
	_, err := executeCmd("go", withArgs(append([]string{"test", "-race", "-count=1"}, pureGoPackages...)...), withStream())
	return err
}

// Runs the unit tests without the slow file watching cases.
func (Test) Short() error {
	_, err := executeCmd("go", withArgs(append([]string{"test", "-short"}, pureGoPackages...)...), withEnv("CGO_ENABLED=0"), withStream())
	return err
}

// Runs go vet over the whole module.
func (Test) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}
