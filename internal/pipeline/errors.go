package pipeline

import "errors"

var (
	// ErrSourceOpen is returned when the input cannot be opened or is not
	// a usable video. Nothing is written.
	ErrSourceOpen = errors.New("cannot open input video")

	// ErrEmptyResult is returned when no frame survives deduplication. No
	// output file is created.
	ErrEmptyResult = errors.New("no frames kept")

	// ErrSinkOpen is returned when the output cannot be opened for writing
	// with the requested codec, rate and geometry.
	ErrSinkOpen = errors.New("cannot open output video")
)
