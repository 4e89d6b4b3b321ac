package poseinterface

// Typed conversion errors. The messages name the offending input so that the
// source data can be corrected without reading converter internals.

import "fmt"

// NoAnnotationsError is returned when the parsed label set contains no
// labeled frames.
//
// For DLC sources the most common cause is a malformed frame path column
// (e.g. comma instead of slash separators), so the message spells out the
// required project layout.
type NoAnnotationsError struct {
	Path  string
	IsDLC bool
}

func (e *NoAnnotationsError) Error() string {
	msg := fmt.Sprintf("No annotations could be extracted from the input file %q. "+
		"Please check that the input file contains labeled frames.", e.Path)
	if e.IsDLC {
		msg += " Ensure that the paths to the labelled frames are in the standard " +
			"DLC project format: labeled-data/<video-name>/" +
			"<filename-with-frame-number>.<extension> and that the frame files exist."
	}
	return msg
}

// MultipleVideosError is returned when the label set references more than one
// distinct video.
type MultipleVideosError struct {
	Count int
}

func (e *MultipleVideosError) Error() string {
	return fmt.Sprintf("The annotations refer to multiple videos (%d), but the "+
		"conversion supports exactly one. Please check the input file and split "+
		"it by video.", e.Count)
}

// FrameNumberError is returned when no frame number can be extracted from a
// filename with the configured pattern.
type FrameNumberError struct {
	FileName string
	Pattern  string
}

func (e *FrameNumberError) Error() string {
	return fmt.Sprintf("No frame number could be extracted from filename %q "+
		"with regexp pattern %q.", e.FileName, e.Pattern)
}

// DuplicateFrameIDError is returned when two images resolve to the same frame
// number.
type DuplicateFrameIDError struct {
	FrameNumber int
	FileNames   [2]string
}

func (e *DuplicateFrameIDError) Error() string {
	return fmt.Sprintf("Extracted image IDs are not unique: %q and %q both "+
		"yield frame number %d.", e.FileNames[0], e.FileNames[1], e.FrameNumber)
}
