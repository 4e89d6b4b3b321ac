package poseinterface

// TFRecord keypoint export functionality.

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	tensorflow "github.com/ryszard/tfutils/proto/tensorflow/core/example"
)

// TFFeatureMap maps feature names to their values. Values must be convertible
// to tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// toTFFeatures converts one image of the document, with its keypoint
// annotations, to the TFRecord feature layout. The image file is read from
// imageDir under the name the document records for it.
func toTFFeatures(img COCOImage, anns []COCOAnnotation, cat COCOCategory, imageDir string) (TFFeatureMap, error) {
	imgPath := filepath.Join(imageDir, img.FileName)
	cfg, format, err := decodeImageConfig(imgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode the image metadata of %q: %v", imgPath, err)
	}
	imgData, err := os.ReadFile(imgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read the image: %v", err)
	}

	f := make(TFFeatureMap, 16)
	f["image/height"] = cfg.Height
	f["image/width"] = cfg.Width
	f["image/filename"] = img.FileName
	f["image/source_id"] = strconv.Itoa(img.ID)
	f["image/encoded"] = imgData
	f["image/format"] = format

	// Per instance bounding boxes and classes, plus the flattened keypoint
	// triplets. Coordinates are normalised to [0, 1] as in the TensorFlow
	// object detection layout.
	numAnns := len(anns)
	xmins := make([]float32, numAnns)
	ymins := make([]float32, numAnns)
	xmaxs := make([]float32, numAnns)
	ymaxs := make([]float32, numAnns)
	classes := make([]string, numAnns)
	classIDs := make([]int64, numAnns)
	var kpXs, kpYs []float32
	var kpVs []int64

	for i, a := range anns {
		xmins[i] = float32(a.Bbox[0]) / float32(cfg.Width)
		ymins[i] = float32(a.Bbox[1]) / float32(cfg.Height)
		xmaxs[i] = float32(a.Bbox[0]+a.Bbox[2]) / float32(cfg.Width)
		ymaxs[i] = float32(a.Bbox[1]+a.Bbox[3]) / float32(cfg.Height)
		classes[i] = cat.Name
		classIDs[i] = int64(cat.ID)

		for j := 0; j+2 < len(a.Keypoints); j += 3 {
			kpXs = append(kpXs, float32(a.Keypoints[j])/float32(cfg.Width))
			kpYs = append(kpYs, float32(a.Keypoints[j+1])/float32(cfg.Height))
			kpVs = append(kpVs, int64(a.Keypoints[j+2]))
		}
	}

	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs
	f["image/object/keypoint/x"] = kpXs
	f["image/object/keypoint/y"] = kpYs
	f["image/object/keypoint/v"] = kpVs
	f["image/object/keypoint/text"] = cat.Keypoints

	return f, nil
}

// WriteTFRecord does a streaming conversion, serialisation and file write of
// the document's images as TFRecord examples, stored under recordPath (with
// shard suffixes added when numShards > 1).
//
// imageDir must contain the image files under the names the document records
// for them, e.g. after ExportFrames has run.
func WriteTFRecord(recordPath, imageDir string, doc *COCODocument, numShards int) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if numShards <= 0 {
		numShards = 1
	}
	if len(doc.Categories) == 0 {
		return fmt.Errorf("document has no categories")
	}
	cat := doc.Categories[0]

	annsByImage := make(map[int][]COCOAnnotation, len(doc.Images))
	for _, a := range doc.Annotations {
		annsByImage[a.ImageID] = append(annsByImage[a.ImageID], a)
	}

	fmtShardSuffix := func(idx int) string {
		return fmt.Sprintf("-%05d-of-%05d", idx, numShards)
	}

	var shardFile *os.File
	shardSize := int(math.Ceil(float64(len(doc.Images)) / float64(numShards)))
	shardIdx := -1

	// Convert and serialise one image at a time.
	for i, img := range doc.Images {
		// Check if a new shard file needs to be opened for writing.
		if i%shardSize == 0 {
			shardIdx++

			if shardFile != nil {
				_ = shardFile.Close()
				shardFile = nil
			}

			shardPath := recordPath
			if numShards > 1 {
				shardPath += fmtShardSuffix(shardIdx)
			}
			f, err := os.Create(shardPath)
			if err != nil {
				return fmt.Errorf("failed to create shard at %q: %v", shardPath, err)
			}
			shardFile = f
		}

		features, err := toTFFeatures(img, annsByImage[img.ID], cat, imageDir)
		if err != nil {
			if shardFile != nil {
				shardFile.Close()
			}
			return err
		}
		tfExample := example.New(features)

		if err := writeTFRecordExample(shardFile, tfExample); err != nil {
			shardFile.Close()
			return fmt.Errorf("failed to write example: %v", err)
		}
	}

	if shardFile != nil {
		return shardFile.Close()
	}
	return nil
}

// writeTFRecordExample serialises the example and writes it as a TFRecord
// to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}
