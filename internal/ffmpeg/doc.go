// Package ffmpeg wraps the ffmpeg and ffprobe binaries. Frames travel as
// raw bgr24 over stdin/stdout pipes, so any container and codec ffmpeg
// understands can be read, and the sink encodes with the encoder mapped
// from a fourcc tag.
package ffmpeg
