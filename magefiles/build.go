//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the testbed binary into bin/.
func (Build) Engine() error {
	_, err := executeCmd("go", withArgs("build", "-o", "bin/athena", "."), withStream())
	return err
}

// Builds the command line tools into bin/. They only use the headless
// renderer and build without cgo.
func (Build) Tools() error {
	_, err := executeCmd("go", withArgs("build", "-o", "bin/athena-tex", "./cmd/athena-tex"), withEnv("CGO_ENABLED=0"), withStream())
	return err
}

// Builds everything.
func (Build) All() {
	mg.SerialDeps(Build.Engine, Build.Tools)
}
