package renderer

import "errors"

var (
	ErrPixelDataSize     = errors.New("pixel data size does not match the texture")
	ErrFrameInProgress   = errors.New("a frame is already in progress")
	ErrNoFrameInProgress = errors.New("no frame in progress")
	ErrRendererShutdown  = errors.New("renderer is shut down")
	ErrEmptyReadback     = errors.New("texture readback produced no data")
)
