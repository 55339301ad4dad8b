// Package xfer validates and encodes GPU transfer commands.
//
// # Overview
//
// xfer turns Vulkan-style transfer commands (image copies, blits, resolves,
// buffer copies, buffer/image copies, attachment and image clears, buffer
// fills and updates) into operations of a WebGPU-class backend. Operations
// the backend cannot perform natively are emulated: format-converting or
// scaled blits and some clears are drawn with generated geometry, and
// copies between size-compatible compressed and uncompressed formats are
// staged through a buffer.
//
// # Quick Start
//
//	dev := xfer.NewDevice()
//
//	var cmd xfer.CopyImage
//	err := cmd.SetContent(dev, src, xfer.LayoutTransferSrc, dst, xfer.LayoutTransferDst,
//		[]xfer.ImageCopyRegion{{
//			SrcSubresource: xfer.SubresourceLayers{Aspect: xfer.AspectColor, LayerCount: 1},
//			DstSubresource: xfer.SubresourceLayers{Aspect: xfer.AspectColor, LayerCount: 1},
//			Extent:         gputypes.Extent3D{Width: 64, Height: 64, DepthOrArrayLayers: 1},
//		}})
//	if err != nil {
//		return err
//	}
//
//	enc := xfer.NewEncoder(backend, pipelines, alloc)
//	enc.Encode(&cmd)
//
// # Two Phases
//
// Every command has a SetContent method and an Encode method. SetContent
// validates the parameters, classifies each region as direct or emulated
// and captures everything the command needs. It returns a *ValidationError
// on failure and leaves the command unchanged. Encode never fails; it
// replays the decisions taken at SetContent.
//
// # Collaborators
//
// Encode talks to three interfaces bundled in an Encoder:
//   - Backend: primitive copies, clears, fills and draws
//   - PipelineFactory: cached render pipelines for emulated paths
//   - Allocator: scratch memory and staging buffers
//
// The backend/trace package records operations for tests and tooling;
// backend/native executes them on a wgpu HAL device.
package xfer
