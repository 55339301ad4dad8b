// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import "errors"

// Package errors for the native backend.
var (
	// ErrForeignResource is reported when a command references an image or
	// buffer that was not created by this package.
	ErrForeignResource = errors.New("native: resource does not belong to this backend")

	// ErrNoRenderPass is reported when a draw targets the active render
	// pass and none was registered with SetRenderPass.
	ErrNoRenderPass = errors.New("native: no active render pass")

	// ErrNoPipeline is reported when a draw has no usable pipeline.
	ErrNoPipeline = errors.New("native: pipeline unavailable")

	// ErrUnsupported is reported for operations the HAL cannot express.
	ErrUnsupported = errors.New("native: operation not supported")
)
