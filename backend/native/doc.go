// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package native executes xfer commands on a gogpu/wgpu HAL device.
//
// A Backend records into a caller-owned hal.CommandEncoder between
// BeginEncoding and EndEncoding. Copies map onto the encoder's copy
// commands; resolves and image clears run as short render passes; the
// emulated blit and clear paths draw with pipelines built from WGSL
// shaders compiled by naga.
//
//	pipes := native.NewPipelines(device)
//	defer pipes.Destroy()
//
//	b := native.NewBackend(device, queue, encoder, pipes)
//	b.Encoder().Encode(&copyCmd, &clearCmd)
//	if err := b.Err(); err != nil {
//	    return err
//	}
//	cmdBuf, _ := encoder.EndEncoding()
//	queue.Submit([]hal.CommandBuffer{cmdBuf})
//	// after the submission completes:
//	b.Release()
//
// Images and buffers passed to commands must be *Image and *Buffer values
// from this package. Operations on other resources are skipped and
// reported through Err.
//
// Draws into an active render pass (ClearAttachments) go to the pass
// registered with SetRenderPass. Layered clears inside a pass write the
// layers bound to that pass's attachments only.
package native
