package config

import (
	"sort"
	"strings"
)

// Codec maps a fourcc tag to the ffmpeg encoder that produces it.
type Codec struct {
	Encoder string
	Tag     string // container tag passed as -tag:v; empty lets the muxer choose
	Preset  bool   // encoder accepts -preset
}

var codecs = map[string]Codec{
	"mp4v": {Encoder: "mpeg4", Tag: "mp4v"},
	"xvid": {Encoder: "mpeg4", Tag: "xvid"},
	"mjpg": {Encoder: "mjpeg"},
	"avc1": {Encoder: "libx264", Tag: "avc1", Preset: true},
	"h264": {Encoder: "libx264", Preset: true},
	"hvc1": {Encoder: "libx265", Tag: "hvc1", Preset: true},
	"hev1": {Encoder: "libx265", Tag: "hev1", Preset: true},
	"vp09": {Encoder: "libvpx-vp9"},
}

// LookupCodec resolves a fourcc tag, case-insensitively.
func LookupCodec(tag string) (Codec, bool) {
	c, ok := codecs[strings.ToLower(strings.TrimSpace(tag))]
	return c, ok
}

// KnownCodec reports whether tag is supported.
func KnownCodec(tag string) bool {
	_, ok := LookupCodec(tag)
	return ok
}

// CodecTags lists the supported fourcc tags in sorted order.
func CodecTags() []string {
	tags := make([]string, 0, len(codecs))
	for t := range codecs {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
