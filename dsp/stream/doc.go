// Package stream defines the contract between an audio host and a block
// processor.
//
// A host configures a [Processor] once with the session settings through
// Initialize, then calls ProcessBlock for every buffer of interleaved
// float32 frames. A nil input buffer means the host delivered no input for
// that block and is processed as silence. ProcessBlock never fails; its
// [Status] tells the host whether to keep the stream running.
//
// [Run] is an offline driver that feeds a whole signal through a processor
// in host-sized blocks, which lets tests and batch rendering reproduce
// live streaming bit for bit.
package stream
