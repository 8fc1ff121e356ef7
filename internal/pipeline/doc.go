// Package pipeline runs a deduplication pass end to end. Frames are pulled
// from a frame.Source, filtered by the stride, scored by a dedup.Engine,
// and the survivors are encoded once the output rate is known. With
// streaming enabled and a fixed rate, frames are written as they are kept.
package pipeline
