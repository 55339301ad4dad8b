// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xfer"
)

// halProvider is implemented by device providers that expose their HAL
// objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// SharedDevice is a HAL device and queue owned by a host application,
// together with the pipeline cache built on them.
type SharedDevice struct {
	device    hal.Device
	queue     hal.Queue
	pipelines *Pipelines
	info      gpucontext.AdapterInfo
	surface   gputypes.TextureFormat
}

// NewSharedDevice wraps a device and queue the caller owns.
func NewSharedDevice(device hal.Device, queue hal.Queue) *SharedDevice {
	return &SharedDevice{
		device:    device,
		queue:     queue,
		pipelines: NewPipelines(device),
		info:      gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown},
	}
}

// FromProvider takes the device and queue of a gpucontext provider. The
// provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
func FromProvider(provider gpucontext.DeviceProvider) (*SharedDevice, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("native: provider does not expose HAL types: %w", ErrUnsupported)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("native: provider HalDevice is not hal.Device: %w", ErrUnsupported)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("native: provider HalQueue is not hal.Queue: %w", ErrUnsupported)
	}

	d := NewSharedDevice(device, queue)
	d.info = provider.AdapterInfo()
	d.surface = provider.SurfaceFormat()
	xfer.Logger().Debug("native: shared device",
		"adapter", d.info.Name, "type", d.info.Type.String(), "surface", d.surface.String())
	return d, nil
}

// Backend returns a backend recording into encoder with the shared
// pipeline cache.
func (d *SharedDevice) Backend(encoder hal.CommandEncoder) *Backend {
	return NewBackend(d.device, d.queue, encoder, d.pipelines)
}

// Pipelines returns the pipeline cache.
func (d *SharedDevice) Pipelines() *Pipelines { return d.pipelines }

// AdapterInfo describes the adapter behind the device, when the provider
// reported one.
func (d *SharedDevice) AdapterInfo() gpucontext.AdapterInfo { return d.info }

// SurfaceFormat is the provider's preferred surface format, or
// TextureFormatUndefined when headless.
func (d *SharedDevice) SurfaceFormat() gputypes.TextureFormat { return d.surface }

// Destroy releases the pipelines. The device and queue stay with their
// owner.
func (d *SharedDevice) Destroy() { d.pipelines.Destroy() }
