package poseinterface

// Conversion of annotation source files to COCO keypoint documents.

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
)

// ConvertOptions configures AnnotationsToCOCO. The zero value selects the
// ternary visibility encoding, derived image filenames and frame-number
// image ids.
type ConvertOptions struct {
	// Filenames is used verbatim as the output image names instead of the
	// derived ones. One entry per labeled frame, in frame order.
	Filenames []string

	// Visibility selects the keypoint visibility encoding. Defaults to
	// VisibilityTernary.
	Visibility VisibilityEncoding

	// FrameRegexp extracts the frame number from output image filenames when
	// remapping image ids. Its first capture group must cover the digits.
	// Defaults to DefaultFrameRegexp.
	FrameRegexp *regexp.Regexp

	// Naming supplies the dataset entities for derived filenames. Ignored
	// when Filenames is set.
	Naming NamingScheme

	// KeepImageIDs keeps the converter's sequential image ids instead of
	// remapping every image id to the frame number embedded in its filename.
	KeepImageIDs bool
}

// withDefaults returns a copy of o with unset fields filled in. A nil
// receiver yields the defaults.
func (o *ConvertOptions) withDefaults() ConvertOptions {
	var out ConvertOptions
	if o != nil {
		out = *o
	}
	if out.Visibility == "" {
		out.Visibility = VisibilityTernary
	}
	if out.FrameRegexp == nil {
		out.FrameRegexp = DefaultFrameRegexp
	}
	return out
}

// AnnotationsToCOCO converts the annotation file at sourcePath to a COCO
// keypoint document and writes it to outputPath, returning outputPath.
//
// The source format is inferred from the file extension. The label set must
// contain at least one labeled frame and reference exactly one video. Unless
// opts.KeepImageIDs is set, every image id in the output equals the frame
// number parsed from the image's filename, and annotation image_id references
// are rewritten accordingly.
//
// All validation and transformation happens in memory; nothing is written
// when an error is returned.
func AnnotationsToCOCO(sourcePath, outputPath string, opts *ConvertOptions) (string, error) {
	o := opts.withDefaults()

	labels, err := LoadLabels(sourcePath)
	if err != nil {
		return "", err
	}
	if len(labels.Frames) == 0 {
		return "", &NoAnnotationsError{Path: sourcePath, IsDLC: IsDLCFile(sourcePath)}
	}
	if len(labels.Videos) > 1 {
		return "", &MultipleVideosError{Count: len(labels.Videos)}
	}

	filenames := o.Filenames
	if len(filenames) == 0 {
		if filenames, err = DeriveImageFilenames(labels, o.Naming); err != nil {
			return "", err
		}
	}

	doc, err := ToCOCO(labels, filenames, o.Visibility)
	if err != nil {
		return "", err
	}
	fillImageSizes(doc, labels, sourcePath)

	if !o.KeepImageIDs {
		if doc, err = RemapImageIDs(doc, o.FrameRegexp); err != nil {
			return "", err
		}
	}

	if err := WriteCOCO(outputPath, doc); err != nil {
		return "", err
	}

	slog.Info("Wrote COCO annotations",
		"images", len(doc.Images), "annotations", len(doc.Annotations), "path", outputPath)
	return outputPath, nil
}

// RemapImageIDs returns a copy of doc in which every image id is replaced by
// the frame number extracted from the image's filename, with all annotation
// image_id references rewritten through the same old-to-new mapping. doc is
// not modified.
//
// The extracted frame numbers must be unique across the document.
func RemapImageIDs(doc *COCODocument, frameRegexp *regexp.Regexp) (*COCODocument, error) {
	oldToNew := make(map[int]int, len(doc.Images))
	fileByFrame := make(map[int]string, len(doc.Images))

	images := make([]COCOImage, len(doc.Images))
	for i, img := range doc.Images {
		n, err := ExtractFrameNumber(img.FileName, frameRegexp)
		if err != nil {
			return nil, err
		}
		if prev, dup := fileByFrame[n]; dup {
			return nil, &DuplicateFrameIDError{
				FrameNumber: n,
				FileNames:   [2]string{prev, img.FileName},
			}
		}
		fileByFrame[n] = img.FileName
		oldToNew[img.ID] = n

		img.ID = n
		images[i] = img
	}

	annotations := make([]COCOAnnotation, len(doc.Annotations))
	for i, ann := range doc.Annotations {
		newID, ok := oldToNew[ann.ImageID]
		if !ok {
			return nil, fmt.Errorf("annotation %d references unknown image id %d", ann.ID, ann.ImageID)
		}
		ann.ImageID = newID
		annotations[i] = ann
	}

	out := *doc
	out.Images = images
	out.Annotations = annotations
	return &out, nil
}

// fillImageSizes fills in the width and height of each output image by
// decoding the metadata of its source frame file, when that file can be
// found near the annotations. Best effort: unresolvable frames keep zero
// dimensions, which are omitted from the JSON.
func fillImageSizes(doc *COCODocument, labels *LabelSet, sourcePath string) {
	sourceDir := filepath.Dir(sourcePath)

	for i, frame := range labels.Frames {
		src, err := frame.Video.FramePath(frame.FrameIndex)
		if err != nil {
			continue
		}

		p, ok := resolveFrameFile(sourceDir, src)
		if !ok {
			continue
		}
		cfg, _, err := decodeImageConfig(p)
		if err != nil {
			continue
		}
		doc.Images[i].Width = cfg.Width
		doc.Images[i].Height = cfg.Height
	}
}
