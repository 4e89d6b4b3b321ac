package poseinterface

// COCO keypoint annotation format specific functionality.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// VisibilityEncoding selects how the labeled/visible state of a keypoint is
// encoded in the COCO keypoint triplets.
type VisibilityEncoding string

const (
	// VisibilityTernary encodes 0 = not labeled, 1 = labeled but not
	// visible, 2 = labeled and visible.
	VisibilityTernary VisibilityEncoding = "ternary"
	// VisibilityBinary encodes 0 = not visible, 1 = visible. Unlabeled
	// keypoints collapse into "not visible".
	VisibilityBinary VisibilityEncoding = "binary"
)

// valid reports whether v is a known encoding.
func (v VisibilityEncoding) valid() bool {
	return v == VisibilityTernary || v == VisibilityBinary
}

// COCOImage is one entry of the top-level "images" list.
type COCOImage struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// COCOAnnotation is one keypoint instance annotation. Keypoints holds flat
// (x, y, v) triplets in category keypoint order.
type COCOAnnotation struct {
	ID           int       `json:"id"`
	ImageID      int       `json:"image_id"`
	CategoryID   int       `json:"category_id"`
	Keypoints    []float64 `json:"keypoints"`
	NumKeypoints int       `json:"num_keypoints"`
	Bbox         []float64 `json:"bbox"`
	Area         float64   `json:"area"`
	IsCrowd      int       `json:"iscrowd"`
}

// COCOCategory describes the keypoint schema of the annotated instances.
type COCOCategory struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Supercategory string   `json:"supercategory"`
	Keypoints     []string `json:"keypoints"`
	Skeleton      [][2]int `json:"skeleton,omitempty"`
}

// COCODocument is the output annotation document.
type COCODocument struct {
	Images      []COCOImage      `json:"images"`
	Annotations []COCOAnnotation `json:"annotations"`
	Categories  []COCOCategory   `json:"categories"`
}

// ToCOCO converts the label set to a COCO document using the given output
// image filenames (one per labeled frame, in frame order) and visibility
// encoding. Image and annotation ids are assigned sequentially from 1.
func ToCOCO(labels *LabelSet, filenames []string, visibility VisibilityEncoding) (*COCODocument, error) {
	if !visibility.valid() {
		return nil, fmt.Errorf("unknown visibility encoding %q (supported: %s, %s)",
			visibility, VisibilityTernary, VisibilityBinary)
	}
	if len(filenames) != len(labels.Frames) {
		return nil, fmt.Errorf("got %d image filenames for %d labeled frames",
			len(filenames), len(labels.Frames))
	}

	doc := &COCODocument{
		Images:      make([]COCOImage, 0, len(labels.Frames)),
		Annotations: make([]COCOAnnotation, 0, len(labels.Frames)),
		Categories: []COCOCategory{{
			ID:            1,
			Name:          labels.Skeleton.Name,
			Supercategory: "animal",
			Keypoints:     labels.Skeleton.Nodes,
			Skeleton:      cocoSkeletonEdges(labels.Skeleton),
		}},
	}

	annID := 1
	for i, frame := range labels.Frames {
		imgID := i + 1
		doc.Images = append(doc.Images, COCOImage{ID: imgID, FileName: filenames[i]})

		for _, inst := range frame.Instances {
			doc.Annotations = append(doc.Annotations,
				cocoAnnotation(annID, imgID, inst, visibility))
			annID++
		}
	}

	return doc, nil
}

// cocoAnnotation converts a single instance.
func cocoAnnotation(id, imageID int, inst Instance, visibility VisibilityEncoding) COCOAnnotation {
	kps := make([]float64, 0, 3*len(inst.Points))
	var minX, minY, maxX, maxY float64
	haveBbox := false

	for _, p := range inst.Points {
		if !p.Labeled {
			kps = append(kps, 0, 0, 0)
			continue
		}

		v := float64(2)
		switch {
		case visibility == VisibilityTernary && !p.Visible:
			v = 1
		case visibility == VisibilityBinary && p.Visible:
			v = 1
		case visibility == VisibilityBinary:
			v = 0
		}
		kps = append(kps, p.X, p.Y, v)

		if !haveBbox || p.X < minX {
			minX = p.X
		}
		if !haveBbox || p.Y < minY {
			minY = p.Y
		}
		if !haveBbox || p.X > maxX {
			maxX = p.X
		}
		if !haveBbox || p.Y > maxY {
			maxY = p.Y
		}
		haveBbox = true
	}

	bbox := []float64{0, 0, 0, 0}
	if haveBbox {
		bbox = []float64{minX, minY, maxX - minX, maxY - minY}
	}

	return COCOAnnotation{
		ID:           id,
		ImageID:      imageID,
		CategoryID:   1,
		Keypoints:    kps,
		NumKeypoints: inst.NumLabeled(),
		Bbox:         bbox,
		Area:         bbox[2] * bbox[3],
	}
}

// cocoSkeletonEdges converts zero-based skeleton edges to the one-based pairs
// COCO uses.
func cocoSkeletonEdges(s Skeleton) [][2]int {
	if len(s.Edges) == 0 {
		return nil
	}
	edges := make([][2]int, len(s.Edges))
	for i, e := range s.Edges {
		edges[i] = [2]int{e[0] + 1, e[1] + 1}
	}
	return edges
}

// cocoLoader is the Loader for COCO keypoint JSON documents, which makes the
// converter's own output loadable again.
type cocoLoader struct{}

func (cocoLoader) Load(path string) (*LabelSet, error) { return FromCOCO(path) }

// FromCOCO reads and parses a COCO keypoint document from the file at
// jsonPath and normalises it into a LabelSet. All images are attributed to a
// single video named after the document.
//
// Keypoint visibility values are interpreted with the ternary scheme: 0 means
// not labeled, 1 labeled but not visible, and anything above that labeled and
// visible.
func FromCOCO(jsonPath string) (*LabelSet, error) {
	enc, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}

	var doc COCODocument
	if err := json.Unmarshal(enc, &doc); err != nil {
		return nil, fmt.Errorf("invalid COCO JSON: %v", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("missing categories")
	}

	cat := doc.Categories[0]
	skel := Skeleton{Name: cat.Name, Nodes: cat.Keypoints}
	for _, e := range cat.Skeleton {
		skel.Edges = append(skel.Edges, [2]int{e[0] - 1, e[1] - 1})
	}

	labels := &LabelSet{Skeleton: skel}
	videoName := strings.TrimSuffix(filepath.Base(jsonPath), filepath.Ext(jsonPath))
	video := labels.video(videoName)

	frameByImageID := make(map[int]int, len(doc.Images))
	for _, img := range doc.Images {
		frameByImageID[img.ID] = len(labels.Frames)
		labels.Frames = append(labels.Frames, LabeledFrame{
			Video:      video,
			FrameIndex: len(video.ImagePaths),
		})
		video.ImagePaths = append(video.ImagePaths, img.FileName)
	}

	for _, ann := range doc.Annotations {
		idx, ok := frameByImageID[ann.ImageID]
		if !ok {
			return nil, fmt.Errorf("annotation %d references unknown image id %d", ann.ID, ann.ImageID)
		}

		inst := Instance{Points: make([]Point, len(skel.Nodes))}
		for j := range inst.Points {
			if 3*j+2 >= len(ann.Keypoints) {
				break
			}
			x, y, v := ann.Keypoints[3*j], ann.Keypoints[3*j+1], ann.Keypoints[3*j+2]
			if v <= 0 {
				continue
			}
			inst.Points[j] = Point{X: x, Y: y, Labeled: true, Visible: v >= 2}
		}
		labels.Frames[idx].Instances = append(labels.Frames[idx].Instances, inst)
	}

	return labels, nil
}

// ReadCOCODocument reads a COCO document from jsonPath without normalising
// it into a label set.
func ReadCOCODocument(jsonPath string) (*COCODocument, error) {
	enc, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}

	var doc COCODocument
	if err := json.Unmarshal(enc, &doc); err != nil {
		return nil, fmt.Errorf("invalid COCO JSON in %q: %v", jsonPath, err)
	}
	return &doc, nil
}

// WriteCOCO writes the COCO document to outFile.
func WriteCOCO(outFile string, doc *COCODocument) error {
	enc, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outFile, enc, 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %v", outFile, err)
	}
	return nil
}
