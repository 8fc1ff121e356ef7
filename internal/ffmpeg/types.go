package ffmpeg

import (
	"time"

	"github.com/keagan/framesieve/internal/frame"
)

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath    string
	Duration    time.Duration
	Width       int
	Height      int
	FPS         float64
	FrameCount  int
	Bitrate     int64
	VideoCodec  string
	PixFmt      string
	// StreamIndex is the container index of the decoded video stream.
	StreamIndex int
	// Rotation is the display rotation in degrees. Frames are decoded in
	// coded orientation regardless.
	Rotation    int
	HasAudio    bool
	AudioCodec  string
}

// FrameInfo returns the subset of the metadata the pipeline works with.
func (v *VideoInfo) FrameInfo() frame.Info {
	return frame.Info{
		Width:      v.Width,
		Height:     v.Height,
		FPS:        v.FPS,
		FrameCount: v.FrameCount,
		Codec:      v.VideoCodec,
	}
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int
	FPS     float64
	Bitrate string
	Time    string
	Speed   string
}

// Raw frame layout exchanged with ffmpeg over pipes.
const (
	rawFormat   = "rawvideo"
	rawPixFmt   = "bgr24"
	rawChannels = frame.BGRChannels
)
