// Package trace is an xfer backend that records operations instead of
// executing them.
//
// A Recorder implements xfer.Backend, xfer.PipelineFactory and
// xfer.Allocator at once. Every backend call becomes an Op in an ordered
// log that can be inspected, printed or fingerprinted:
//
//	rec := trace.NewRecorder()
//	enc := rec.Encoder()
//	enc.Encode(&copyCmd, &clearCmd)
//	fmt.Print(rec)
//	fmt.Println(rec.Digest())
//
// Pipelines handed out by a Recorder are labels deduplicated per key, so
// the log shows when two draws share a pipeline. Image and Buffer are
// in-memory resource descriptions for plans and tests.
//
// A Recorder is not safe for concurrent use.
package trace
