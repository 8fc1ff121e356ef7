// Package frame defines the decoded picture types that flow through the
// pipeline and the grayscale view used for similarity scoring.
//
// It also declares the Source and Sink contracts implemented by the ffmpeg
// package so the pipeline can be driven by any decoder/encoder pair.
package frame
