//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed. ATHENA_BACKEND overrides the configured backend.
func (Run) Engine() error {
	mg.Deps(Build.Engine)
	fmt.Println("Run engine...")
	args := []string{"--config", "athena.toml"}
	if backend := os.Getenv("ATHENA_BACKEND"); backend != "" {
		args = append(args, "--backend", backend)
	}
	_, err := executeCmd("bin/athena", withArgs(args...), withStream())
	return err
}

// Runs the testbed on the headless backend for a few hundred frames.
func (Run) Headless() error {
	mg.Deps(Build.Engine)
	_, err := executeCmd("bin/athena", withArgs("--backend", "headless", "--frames", "300"), withStream())
	return err
}
