package trace

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/gogpu/xfer"
	"github.com/gogpu/xfer/internal/cache"
)

// Pipeline is a recorded pipeline. Equal keys yield the same *Pipeline.
type Pipeline struct {
	id    int
	label string
}

// Label returns the pipeline key rendering prefixed with its id.
func (p *Pipeline) Label() string { return p.label }

// ID returns the creation order of the pipeline, starting at 0.
func (p *Pipeline) ID() int { return p.id }

// Recorder records backend calls in order.
type Recorder struct {
	session   uuid.UUID
	ops       []Op
	pipelines *cache.Cache[string, *Pipeline]
	created   int
	staging   []*Buffer
}

// NewRecorder creates an empty recorder with a fresh session id.
func NewRecorder() *Recorder {
	return &Recorder{
		session:   uuid.New(),
		ops:       make([]Op, 0, 64),
		pipelines: cache.New[string, *Pipeline](0, cache.StringHasher),
	}
}

// Encoder returns an encoder whose collaborators are all r.
func (r *Recorder) Encoder() *xfer.Encoder { return xfer.NewEncoder(r, r, r) }

// Session identifies this recorder in logs.
func (r *Recorder) Session() uuid.UUID { return r.session }

// Ops returns a copy of the log.
func (r *Recorder) Ops() []Op {
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Len returns the number of recorded ops.
func (r *Recorder) Len() int { return len(r.ops) }

// Staging returns the buffers handed out by Buffer, in allocation order.
func (r *Recorder) Staging() []*Buffer { return r.staging }

// PipelineCount returns the number of distinct pipelines created.
func (r *Recorder) PipelineCount() int { return r.created }

// Reset clears the log and staging buffers. Pipelines stay cached.
func (r *Recorder) Reset() {
	r.ops = r.ops[:0]
	r.staging = nil
}

func (r *Recorder) String() string {
	var b strings.Builder
	for i, op := range r.ops {
		fmt.Fprintf(&b, "%4d %s\n", i, op)
	}
	return b.String()
}

// Digest returns the blake3 hex digest of the rendered log. Recording the
// same commands over equally named resources yields the same digest in
// every session.
func (r *Recorder) Digest() string {
	h := blake3.Sum256([]byte(r.String()))
	return hex.EncodeToString(h[:])
}

func (r *Recorder) record(kind OpKind, use xfer.CommandUse, v any) {
	r.ops = append(r.ops, Op{Kind: kind, Use: use, Value: v})
}

// =============================================================================
// xfer.Backend
// =============================================================================

func (r *Recorder) CopyImage(use xfer.CommandUse, op *xfer.ImageCopyOp) {
	r.record(OpCopyImage, use, *op)
}

func (r *Recorder) CopyBuffer(use xfer.CommandUse, op *xfer.BufferCopyOp) {
	r.record(OpCopyBuffer, use, *op)
}

func (r *Recorder) CopyBufferToImage(use xfer.CommandUse, op *xfer.BufferImageCopyOp) {
	r.record(OpCopyBufferToImage, use, *op)
}

func (r *Recorder) CopyImageToBuffer(use xfer.CommandUse, op *xfer.BufferImageCopyOp) {
	r.record(OpCopyImageToBuffer, use, *op)
}

func (r *Recorder) ResolveImage(use xfer.CommandUse, op *xfer.ResolveOp) {
	r.record(OpResolveImage, use, *op)
}

func (r *Recorder) ClearImage(use xfer.CommandUse, op *xfer.ImageClearOp) {
	r.record(OpClearImage, use, *op)
}

func (r *Recorder) FillBuffer(use xfer.CommandUse, op *xfer.FillOp) {
	r.record(OpFillBuffer, use, *op)
}

func (r *Recorder) UpdateBuffer(use xfer.CommandUse, op *xfer.UpdateOp) {
	r.record(OpUpdateBuffer, use, *op)
}

func (r *Recorder) Draw(use xfer.CommandUse, call *xfer.DrawCall) {
	c := *call
	c.Vertices = append([]byte(nil), call.Vertices...)
	c.Uniforms = append([]byte(nil), call.Uniforms...)
	r.record(OpDraw, use, c)
}

// =============================================================================
// xfer.PipelineFactory and xfer.Allocator
// =============================================================================

func (r *Recorder) BlitPipeline(key xfer.BlitPipelineKey) xfer.Pipeline {
	return r.pipeline(key.String())
}

func (r *Recorder) ClearPipeline(key xfer.ClearPipelineKey) xfer.Pipeline {
	return r.pipeline(key.String())
}

func (r *Recorder) pipeline(key string) *Pipeline {
	return r.pipelines.GetOrCreate(key, func() *Pipeline {
		p := &Pipeline{id: r.created, label: fmt.Sprintf("#%d %s", r.created, key)}
		r.created++
		xfer.Logger().Debug("trace: pipeline created", "session", r.session.String(), "key", key)
		return p
	})
}

// Buffer allocates a staging buffer named after its allocation order.
func (r *Recorder) Buffer(size uint64, contents []byte) xfer.Buffer {
	b := NewBuffer(fmt.Sprintf("staging%d", len(r.staging)), size, 0)
	copy(b.data, contents)
	r.staging = append(r.staging, b)
	return b
}

// Bytes returns fresh host memory. Draw copies vertex and uniform bytes
// into the log, so the memory is not retained.
func (r *Recorder) Bytes(n int) []byte { return make([]byte, n) }
