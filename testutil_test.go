package poseinterface

// Shared test fixtures: mock DLC projects with CSV annotations and dummy
// frame images.

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// The single-index layout keeps the frame path in one column.
const dlcSingleIndexCSV = `scorer,Pranav,Pranav,Pranav,Pranav,Pranav,Pranav
bodyparts,snout,snout,leftear,leftear,rightear,rightear
coords,x,y,x,y,x,y
labeled-data/m4s1/img0000.png,163.0,283.0,178.0,252.0,195.0,260.0
labeled-data/m4s1/img0001.png,150.5,279.0,170.0,248.5,,
labeled-data/m4s1/img0002.png,142.0,271.0,,,188.0,254.0
labeled-data/m4s1/img0003.png,139.0,265.5,158.0,244.0,181.5,249.0
labeled-data/m4s1/img0004.png,131.0,260.0,151.0,240.0,175.0,245.0
`

// The multi-index layout splits the frame path across three columns.
const dlcMultiIndexCSV = `scorer,,,Shailaja,Shailaja
bodyparts,,,face,face
coords,,,x,y
labeled-data,1052533639_530862_20200924.face,img006825.png,600.0,338.0
labeled-data,1052533639_530862_20200924.face,img020465.png,601.5,339.0
labeled-data,1052533639_530862_20200924.face,img028360.png,598.0,340.5
labeled-data,1052533639_530862_20200924.face,img053600.png,595.0,335.0
labeled-data,1052533639_530862_20200924.face,img081960.png,602.0,336.5
`

// Multi-animal single-index layout with an individuals header row.
const dlcMultiAnimalCSV = `scorer,Mackenzie,Mackenzie,Mackenzie,Mackenzie
individuals,mouse1,mouse1,mouse2,mouse2
bodyparts,snout,snout,snout,snout
coords,x,y,x,y
labeled-data/pair1/img0000.png,10.0,20.0,30.0,40.0
labeled-data/pair1/img0001.png,11.0,21.0,,
`

// writeDummyFrame creates a minimal 1x1 image file at path.
func writeDummyFrame(t *testing.T, path string) {
	t.Helper()
	writeDummyFrameSized(t, path, 1, 1)
}

// writeDummyFrameSized creates an image file of the given dimensions at path.
func writeDummyFrameSized(t *testing.T, path string, width, height int) {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{})
	require.NoError(t, imaging.Save(img, path))
}

// frameNamesFromCSV lists the frame image base names referenced by a fixture
// CSV, in row order.
func frameNamesFromCSV(csv string) (video string, frames []string) {
	for _, line := range strings.Split(strings.TrimSpace(csv), "\n") {
		first := strings.SplitN(line, ",", 4)
		switch first[0] {
		case "scorer", "individuals", "bodyparts", "coords":
			continue
		case "labeled-data":
			video = first[1]
			frames = append(frames, first[2])
		default:
			parts := strings.Split(strings.SplitN(line, ",", 2)[0], "/")
			video = parts[len(parts)-2]
			frames = append(frames, parts[len(parts)-1])
		}
	}
	return video, frames
}

// createDLCProject writes a mock DLC project into a temp directory and
// returns the path of the annotations CSV. The CSV is placed either inside
// the video folder (next to the frames) or at the project root.
func createDLCProject(t *testing.T, csvContent, csvName string, csvInRoot bool) string {
	t.Helper()

	root := t.TempDir()
	video, frames := frameNamesFromCSV(csvContent)

	videoDir := filepath.Join(root, "labeled-data", video)
	require.NoError(t, os.MkdirAll(videoDir, 0755))
	for _, f := range frames {
		writeDummyFrame(t, filepath.Join(videoDir, f))
	}

	csvPath := filepath.Join(videoDir, csvName)
	if csvInRoot {
		csvPath = filepath.Join(root, csvName)
	}
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0644))
	return csvPath
}

// testLabelSet builds a small in-memory label set with one video and the
// given per-frame source image names.
func testLabelSet(t *testing.T, frameNames ...string) *LabelSet {
	t.Helper()

	labels := &LabelSet{
		Skeleton: Skeleton{Name: "tester", Nodes: []string{"snout", "tailbase"}},
	}
	video := labels.video("m4s1")
	for _, name := range frameNames {
		frame := LabeledFrame{Video: video, FrameIndex: len(video.ImagePaths)}
		video.ImagePaths = append(video.ImagePaths, "labeled-data/m4s1/"+name)
		frame.Instances = []Instance{{Points: []Point{
			{X: 1, Y: 2, Labeled: true, Visible: true},
			{X: 3, Y: 4, Labeled: true, Visible: true},
		}}}
		labels.Frames = append(labels.Frames, frame)
	}
	return labels
}
