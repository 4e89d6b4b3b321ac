package poseinterface

// Frame-number derivation and dataset file naming.

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// DefaultFrameRegexp is the pattern used to extract the frame number embedded
// in output image filenames. The first capture group must cover the digits.
var DefaultFrameRegexp = regexp.MustCompile(`frame-(\d+)`)

// digitRun matches a run of decimal digits in a source image name.
var digitRun = regexp.MustCompile(`\d+`)

// ExtractFrameNumber extracts the integer frame number from filename using
// frameRegexp. The digits captured by the first group are parsed base 10, so
// leading zeros are ignored.
func ExtractFrameNumber(filename string, frameRegexp *regexp.Regexp) (int, error) {
	m := frameRegexp.FindStringSubmatch(filename)
	if len(m) < 2 {
		return 0, &FrameNumberError{FileName: filename, Pattern: frameRegexp.String()}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, &FrameNumberError{FileName: filename, Pattern: frameRegexp.String()}
	}
	return n, nil
}

// sourceFrameDigits returns the digits encoding the frame number in a source
// image name, e.g. "img0042.png" yields "0042". When the name is
// alphanumerical the last run of digits is taken, matching how DLC frame
// extraction tools name their output.
func sourceFrameDigits(name string) (string, error) {
	stem := strings.TrimSuffix(name, path.Ext(name))
	runs := digitRun.FindAllString(stem, -1)
	if len(runs) == 0 {
		return "", &FrameNumberError{FileName: name, Pattern: digitRun.String()}
	}
	return runs[len(runs)-1], nil
}

// NamingScheme carries the dataset entities used to name the output files of
// one video following the sub-<subject>_ses-<session>_view-<view> convention.
type NamingScheme struct {
	Subject string
	Session string
	View    string
}

// SessionID returns the "sub-<subject>_ses-<session>" prefix.
func (n NamingScheme) SessionID() string {
	return fmt.Sprintf("sub-%s_ses-%s", n.Subject, n.Session)
}

// VideoID returns the "sub-<subject>_ses-<session>_view-<view>" prefix shared
// by the video file, the frame images and the annotations document.
func (n NamingScheme) VideoID() string {
	return fmt.Sprintf("%s_view-%s", n.SessionID(), n.View)
}

// FrameFileName builds the output image filename for the frame encoded by
// digits (kept verbatim, preserving zero padding) and the given extension
// (without the dot).
func (n NamingScheme) FrameFileName(digits, ext string) string {
	return fmt.Sprintf("%s_frame-%s.%s", n.VideoID(), digits, ext)
}

// DeriveImageFilenames derives one output image filename per labeled frame,
// in the label set's frame order.
//
// The frame number is read from the frame's source image path. Frames whose
// video carries no per-frame source paths fall back to the zero-padded frame
// index, which is the frame number for video-backed sources.
func DeriveImageFilenames(labels *LabelSet, scheme NamingScheme) ([]string, error) {
	names := make([]string, len(labels.Frames))
	for i, frame := range labels.Frames {
		digits := fmt.Sprintf("%05d", frame.FrameIndex)
		ext := "png"

		if src, err := frame.Video.FramePath(frame.FrameIndex); err == nil {
			base := path.Base(src)
			digits, err = sourceFrameDigits(base)
			if err != nil {
				return nil, err
			}
			if e := strings.TrimPrefix(path.Ext(base), "."); e != "" {
				ext = e
			}
		}

		names[i] = scheme.FrameFileName(digits, ext)
	}
	return names, nil
}
