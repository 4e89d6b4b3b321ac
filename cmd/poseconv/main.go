// Converts pose-estimation keypoint annotations (DLC CSV, COCO JSON) to COCO
// keypoint documents, optionally organising the video, its labeled frames and
// the annotations in the pose benchmarks dataset layout.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"

	"github.com/Dhie-boop/poseinterface"
)

var (
	labelsPath string // The input annotations file.
	labelsOut  string // The output COCO JSON file.
	configPath string // Optional TOML dataset config.

	subject string // Dataset entities for derived filenames.
	session string
	view    string

	visibility   string // Keypoint visibility encoding.
	frameRegexp  string // Pattern extracting frame numbers from image names.
	keepImageIDs bool   // Keep sequential image ids.

	datasetDir   string // Root of the benchmark dataset layout (migration mode).
	framesOut    string // Output directory for the renamed frame images.
	resizeLonger int    // Target length for the longer side of exported frames.
	jpegQuality  int    // JPEG quality for re-encoded frames.

	videoPath string // Source video to copy into the dataset.

	tfrecordOut string // Optional TFRecord output path.
	numShards   int    // The number of TFRecord shard files to create.
)

func init() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(os.Stderr, "  convert only:\t\t-labels <file> -labels-out <file> -subject -session -view")
		_, _ = fmt.Fprintln(os.Stderr, "  dataset migration:\t-labels <file> -dataset-dir <dir> [-frames-out is implied] [-video <file>]")
		_, _ = fmt.Fprintln(os.Stderr, "  tfrecord output:\t-tfrecord-out <file> [-num-shards] (requires exported frames)")
		_, _ = fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}

	flag.StringVar(&labelsPath, "labels", "",
		"The `path` to the input annotations file (.csv for DLC, .json for COCO) or a directory containing one")
	flag.StringVar(&labelsOut, "labels-out", "",
		"The `path` to the output COCO JSON file (derived in migration mode)")
	flag.StringVar(&configPath, "config", "",
		"The `path` to a TOML dataset config; flags override its values")

	flag.StringVar(&subject, "subject", "", "The subject `identifier` (sub-...)")
	flag.StringVar(&session, "session", "", "The session `identifier` (ses-...)")
	flag.StringVar(&view, "view", "", "The camera view `identifier` (view-...)")

	flag.StringVar(&visibility, "visibility", "",
		"The keypoint visibility `encoding` {ternary, binary}")
	flag.StringVar(&frameRegexp, "frame-regexp", "",
		"The `pattern` extracting frame numbers from output image names; first group captures the digits")
	flag.BoolVar(&keepImageIDs, "keep-image-ids", false,
		"Keep sequential image ids instead of remapping them to frame numbers")

	flag.StringVar(&datasetDir, "dataset-dir", "",
		"The `path` to the dataset root; creates sub-..._ses-.../Frames/ and derives output paths")
	flag.StringVar(&framesOut, "frames-out", "",
		"The `path` to the output directory for renamed labeled frame images")
	flag.IntVar(&resizeLonger, "resize-longer", 0,
		"The target `length` for the longer side of exported frames (zero keeps the original size)")
	flag.IntVar(&jpegQuality, "jpeg-quality", 0,
		"The quality to use when re-encoding JPEG frames [1, 100]")

	flag.StringVar(&videoPath, "video", "",
		"The `path` to the source video to copy into the dataset (migration mode)")

	flag.StringVar(&tfrecordOut, "tfrecord-out", "",
		"The `path` to a TFRecord output file for the converted annotations")
	flag.IntVar(&numShards, "num-shards", 1,
		"The number of TFRecord shard files to create")

	flag.Parse()

	if labelsPath == "" {
		printUsageAndExit("Missing -labels input path argument")
	}
	if labelsOut == "" && datasetDir == "" {
		printUsageAndExit("One of -labels-out or -dataset-dir is required")
	}
	if videoPath != "" && datasetDir == "" {
		printUsageAndExit("-video requires -dataset-dir")
	}
	if numShards < 1 {
		printUsageAndExit("Invalid -num-shards: ", numShards)
	}
}

func printUsageAndExit(msg ...interface{}) {
	_, _ = fmt.Fprintln(os.Stderr, fmt.Sprint(msg...))
	flag.Usage()
	os.Exit(1)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: "15:04:05",
		}),
	))

	// Start from the config file (or the defaults) and apply the flags that
	// were set explicitly on top.
	cfg := poseinterface.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = poseinterface.LoadConfig(configPath); err != nil {
			fatal("Failed to load the config", err)
		}
	}
	applyFlagOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		fatal("Invalid configuration", err)
	}
	if cfg.Dataset.Subject == "" || cfg.Dataset.Session == "" || cfg.Dataset.View == "" {
		printUsageAndExit("Missing dataset entities; set -subject, -session and -view (or a -config file)")
	}

	opts := cfg.ConvertOptions()
	scheme := opts.Naming

	// -labels may point at a directory holding exactly one annotation file.
	if info, err := os.Stat(labelsPath); err == nil && info.IsDir() {
		found, err := poseinterface.FindLabelFiles(labelsPath)
		if err != nil {
			fatal("Failed to scan the annotations directory", err)
		}
		if len(found) != 1 {
			fatal("Cannot pick the annotations file", fmt.Errorf(
				"found %d annotation files in %q, pass one with -labels", len(found), labelsPath))
		}
		labelsPath = found[0]
	}

	// Resolve output locations. Migration mode scaffolds the
	// <dataset>/sub-..._ses-.../Frames/ layout.
	outJSON := labelsOut
	if datasetDir != "" {
		sessionDir := filepath.Join(datasetDir, scheme.SessionID())
		framesDir := filepath.Join(sessionDir, "Frames")
		if err := os.MkdirAll(framesDir, 0755); err != nil {
			fatal("Failed to create the dataset layout", err)
		}
		if outJSON == "" {
			outJSON = filepath.Join(framesDir, scheme.VideoID()+"_framelabels.json")
		}
		if framesOut == "" {
			framesOut = framesDir
		}
	}

	// Convert the annotations.
	out, err := poseinterface.AnnotationsToCOCO(labelsPath, outJSON, opts)
	if err != nil {
		fatal("Conversion failed", err)
	}

	// Copy the labeled frame images under their derived names.
	if framesOut != "" {
		labels, err := poseinterface.LoadLabels(labelsPath)
		if err != nil {
			fatal("Failed to reload the annotations for frame export", err)
		}
		_, err = poseinterface.ExportFrames(labels, scheme, filepath.Dir(labelsPath), framesOut,
			&poseinterface.ExportOptions{
				ResizeLonger: cfg.Frames.ResizeLonger,
				JPEGQuality:  cfg.Frames.JPEGQuality,
			})
		if err != nil {
			fatal("Frame export failed", err)
		}
	}

	// Copy the video into the session directory.
	if videoPath != "" {
		dst := filepath.Join(datasetDir, scheme.SessionID(),
			scheme.VideoID()+filepath.Ext(videoPath))
		if err := copyVideo(videoPath, dst); err != nil {
			fatal("Video copy failed", err)
		}
	}

	// Serialise the converted document as TFRecord examples.
	if tfrecordOut != "" {
		if framesOut == "" {
			printUsageAndExit("-tfrecord-out requires exported frames (-frames-out or -dataset-dir)")
		}
		doc, err := poseinterface.ReadCOCODocument(out)
		if err != nil {
			fatal("Failed to read back the converted document", err)
		}
		if err := poseinterface.WriteTFRecord(tfrecordOut, framesOut, doc, numShards); err != nil {
			fatal("TFRecord export failed", err)
		}
		slog.Info("Wrote TFRecord examples", "path", tfrecordOut, "shards", numShards)
	}

	slog.Info("Done", "annotations", out)
}

// applyFlagOverrides copies explicitly set flag values into the config.
func applyFlagOverrides(cfg *poseinterface.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "subject":
			cfg.Dataset.Subject = subject
		case "session":
			cfg.Dataset.Session = session
		case "view":
			cfg.Dataset.View = view
		case "visibility":
			cfg.Conversion.Visibility = visibility
		case "frame-regexp":
			cfg.Conversion.FrameRegexp = frameRegexp
		case "keep-image-ids":
			cfg.Conversion.KeepImageIDs = keepImageIDs
		case "resize-longer":
			cfg.Frames.ResizeLonger = resizeLonger
		case "jpeg-quality":
			cfg.Frames.JPEGQuality = jpegQuality
		}
	})
}

// copyVideo copies the source video to dst unless it already exists there.
func copyVideo(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		slog.Info("Video already exists, skipping copy", "path", dst)
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	slog.Info("Copied video", "path", dst)
	return nil
}
