package poseinterface

// The intermediate label-set representation.

import "fmt"

// Point is a single keypoint location within an instance.
//
// A point that was never annotated has Labeled == false; its coordinates are
// meaningless in that case. A labeled point may still be marked occluded via
// Visible == false.
type Point struct {
	X       float64
	Y       float64
	Labeled bool
	Visible bool
}

// Instance is one animal (or other subject) annotated in a frame. Points are
// ordered to match the skeleton nodes of the owning label set.
type Instance struct {
	Points []Point
}

// NumLabeled counts the points of the instance that carry an annotation.
func (in Instance) NumLabeled() int {
	n := 0
	for _, p := range in.Points {
		if p.Labeled {
			n++
		}
	}
	return n
}

// Skeleton describes the keypoint layout shared by all instances.
type Skeleton struct {
	Name  string
	Nodes []string
	Edges [][2]int // Pairs of indices into Nodes.
}

// Video is a logical reference to the footage the frames were taken from.
//
// For image-sequence backed videos, ImagePaths holds one source image path
// per frame, indexed by LabeledFrame.FrameIndex.
type Video struct {
	Name       string
	ImagePaths []string
}

// FramePath resolves the source image path for the frame at index idx.
func (v *Video) FramePath(idx int) (string, error) {
	if len(v.ImagePaths) == 0 {
		return "", fmt.Errorf("video %q has no per-frame image paths", v.Name)
	}
	if idx < 0 || idx >= len(v.ImagePaths) {
		return "", fmt.Errorf("frame index %d out of range for video %q with %d frames",
			idx, v.Name, len(v.ImagePaths))
	}
	return v.ImagePaths[idx], nil
}

// LabeledFrame is one annotated video frame.
type LabeledFrame struct {
	Video      *Video
	FrameIndex int
	Instances  []Instance
}

// LabelSet is the parsed content of one annotation source file. The order of
// Frames is significant: it determines output filename assignment when no
// explicit filenames are supplied.
type LabelSet struct {
	Frames   []LabeledFrame
	Videos   []*Video
	Skeleton Skeleton
}

// video returns the registered *Video with the given name, creating and
// registering it on first use.
func (ls *LabelSet) video(name string) *Video {
	for _, v := range ls.Videos {
		if v.Name == name {
			return v
		}
	}
	v := &Video{Name: name}
	ls.Videos = append(ls.Videos, v)
	return v
}
