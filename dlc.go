package poseinterface

// DeepLabCut (DLC) specific functionality.
//
// DLC projects store manual annotations in CollectedData_<scorer>.csv files.
// The frame path of each row must follow the project layout
// labeled-data/<video-name>/<filename-with-frame-number>.<extension>, either
// as a single column or split across three columns (the "multi-index"
// layout). Multi-animal projects add an "individuals" header row.

import (
	"encoding/csv"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// dlcLoader is the Loader for DLC CollectedData CSV files.
type dlcLoader struct{}

func (dlcLoader) Load(path string) (*LabelSet, error) { return FromDLC(path) }

// dlcPointColumns holds the CSV column indices for one keypoint of one
// individual.
type dlcPointColumns struct {
	x int
	y int
}

// FromDLC reads and parses DLC annotations from the CSV file at csvPath.
//
// Rows whose frame path does not contain a <video>/<file> separator cannot be
// attributed to a video and are skipped; a file where this holds for every
// row parses to a label set with no frames.
func FromDLC(csvPath string) (*LabelSet, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %v", err)
	}

	// Collect the header rows. They are identified by their first cell.
	header := make(map[string][]string, 4)
	rowIdx := 0
	for ; rowIdx < len(records); rowIdx++ {
		key := strings.TrimSpace(cell(records[rowIdx], 0))
		if key != "scorer" && key != "individuals" && key != "bodyparts" && key != "coords" {
			break
		}
		header[key] = records[rowIdx]
	}
	bodyparts := header["bodyparts"]
	coords := header["coords"]
	if bodyparts == nil || coords == nil {
		return nil, fmt.Errorf("missing bodyparts/coords header rows")
	}

	// The scorer row is empty over the leading columns that hold the frame
	// path, which distinguishes the single-column layout (data starts at
	// column 1) from the three-column layout (data starts at column 3).
	dataStart := 1
	scorer := ""
	if sr := header["scorer"]; sr != nil {
		for dataStart < len(sr) && strings.TrimSpace(sr[dataStart]) == "" {
			dataStart++
		}
		if dataStart < len(sr) {
			scorer = strings.TrimSpace(sr[dataStart])
		}
	}

	// Bind (individual, bodypart) pairs to their x/y column indices.
	individuals := make([]string, 0, 1)
	nodes := make([]string, 0, len(bodyparts)/2)
	columns := make(map[string]map[string]*dlcPointColumns)
	for i := dataStart; i < len(coords); i++ {
		part := strings.TrimSpace(cell(bodyparts, i))
		if part == "" {
			continue
		}
		indiv := strings.TrimSpace(cell(header["individuals"], i))

		byPart, ok := columns[indiv]
		if !ok {
			byPart = make(map[string]*dlcPointColumns)
			columns[indiv] = byPart
			individuals = append(individuals, indiv)
		}
		pc, ok := byPart[part]
		if !ok {
			pc = &dlcPointColumns{x: -1, y: -1}
			byPart[part] = pc
			if !containsString(nodes, part) {
				nodes = append(nodes, part)
			}
		}

		switch strings.ToLower(strings.TrimSpace(cell(coords, i))) {
		case "x":
			pc.x = i
		case "y":
			pc.y = i
		}
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no bodypart columns found")
	}

	skelName := scorer
	if skelName == "" {
		skelName = "skeleton"
	}
	labels := &LabelSet{Skeleton: Skeleton{Name: skelName, Nodes: nodes}}

	// Parse the annotation rows.
	for _, rec := range records[rowIdx:] {
		framePath, ok := dlcFramePath(rec, dataStart)
		if !ok {
			continue
		}

		dir, _ := path.Split(framePath)
		if dir == "" {
			// No video directory component; the row cannot be attributed.
			continue
		}
		videoName := path.Base(strings.TrimSuffix(dir, "/"))

		video := labels.video(videoName)
		frame := LabeledFrame{Video: video, FrameIndex: len(video.ImagePaths)}
		video.ImagePaths = append(video.ImagePaths, framePath)

		for _, indiv := range individuals {
			inst := Instance{Points: make([]Point, len(nodes))}
			for j, part := range nodes {
				pc := columns[indiv][part]
				if pc == nil || pc.x < 0 || pc.y < 0 {
					continue
				}
				x, errX := strconv.ParseFloat(strings.TrimSpace(cell(rec, pc.x)), 64)
				y, errY := strconv.ParseFloat(strings.TrimSpace(cell(rec, pc.y)), 64)
				if errX != nil || errY != nil {
					continue // Empty cells mean the keypoint was not labeled.
				}
				inst.Points[j] = Point{X: x, Y: y, Labeled: true, Visible: true}
			}
			if inst.NumLabeled() > 0 {
				frame.Instances = append(frame.Instances, inst)
			}
		}

		if len(frame.Instances) > 0 {
			labels.Frames = append(labels.Frames, frame)
		} else {
			// Roll back the image path reserved for this row.
			video.ImagePaths = video.ImagePaths[:len(video.ImagePaths)-1]
		}
	}

	// Drop videos that ended up with no frames at all.
	kept := labels.Videos[:0]
	for _, v := range labels.Videos {
		if len(v.ImagePaths) > 0 {
			kept = append(kept, v)
		}
	}
	labels.Videos = kept

	return labels, nil
}

// dlcFramePath assembles the frame path of an annotation row, joining the
// leading path columns for the three-column layout. Backslash separators are
// normalised to forward slashes.
func dlcFramePath(rec []string, dataStart int) (string, bool) {
	if dataStart > 1 {
		parts := make([]string, 0, dataStart)
		for i := 0; i < dataStart; i++ {
			p := strings.TrimSpace(cell(rec, i))
			if p == "" {
				return "", false
			}
			parts = append(parts, p)
		}
		return path.Join(parts...), true
	}

	p := strings.TrimSpace(cell(rec, 0))
	if p == "" {
		return "", false
	}
	return strings.ReplaceAll(p, "\\", "/"), true
}

// IsDLCFile reports whether the file at p looks like a DLC CollectedData
// annotations file, either by its name or by its header row.
func IsDLCFile(p string) bool {
	if strings.ToLower(filepath.Ext(p)) != ".csv" {
		return false
	}
	if strings.HasPrefix(filepath.Base(p), "CollectedData_") {
		return true
	}

	f, err := os.Open(p)
	if err != nil {
		return false
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rec, err := r.Read()
	return err == nil && len(rec) > 0 && strings.TrimSpace(rec[0]) == "scorer"
}

// cell returns rec[i], or the empty string when the record is too short.
func cell(rec []string, i int) string {
	if rec == nil || i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// containsString looks for v in l.
func containsString(l []string, v string) bool {
	for _, s := range l {
		if s == v {
			return true
		}
	}
	return false
}
