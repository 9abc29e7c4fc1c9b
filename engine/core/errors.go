package core

import (
	"errors"
)

var (
	ErrSwapchainBooting   = errors.New("swapchain resized or recreated, booting")
	ErrUnsupportedBackend = errors.New("unsupported renderer backend")
	ErrNotInitialized     = errors.New("subsystem not initialized")
	ErrAlreadyInitialized = errors.New("subsystem already initialized")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrWindowCreation     = errors.New("failed to create window")
	ErrUnknown            = errors.New("unknown")
)
