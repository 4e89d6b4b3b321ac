package poseinterface

// Export of labeled frame images under the dataset naming convention.

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
)

// ExportOptions configures ExportFrames.
type ExportOptions struct {
	// ResizeLonger resamples each exported frame so that its longer side has
	// this length, preserving the aspect ratio. Zero copies the frames
	// unchanged.
	ResizeLonger int

	// JPEGQuality is used when re-encoding JPEG frames after a resize.
	// Defaults to 90.
	JPEGQuality int
}

// ExportFrames copies the source image of every labeled frame into outDir
// under its derived output filename, so that the image names in a converted
// COCO document match files on disk.
//
// Source frames are resolved relative to sourceDir, the directory of the
// annotations file. Destination files that already exist are left untouched,
// which makes re-runs of a migration cheap. Returns the number of frames
// written.
func ExportFrames(labels *LabelSet, scheme NamingScheme, sourceDir, outDir string, opts *ExportOptions) (int, error) {
	var o ExportOptions
	if opts != nil {
		o = *opts
	}
	if o.JPEGQuality <= 0 {
		o.JPEGQuality = 90
	}

	names, err := DeriveImageFilenames(labels, scheme)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, fmt.Errorf("cannot create frame output directory %q: %v", outDir, err)
	}

	type task struct {
		src string
		dst string
	}
	tasks := make([]task, 0, len(labels.Frames))
	for i, frame := range labels.Frames {
		src, err := frame.Video.FramePath(frame.FrameIndex)
		if err != nil {
			return 0, err
		}
		resolved, ok := resolveFrameFile(sourceDir, src)
		if !ok {
			return 0, fmt.Errorf("labeled frame image %q not found near %q", src, sourceDir)
		}
		tasks = append(tasks, task{src: resolved, dst: filepath.Join(outDir, names[i])})
	}

	// Copy or re-encode the frames from a bounded work queue; the resize
	// path loads whole images into memory.
	numWorkers := 2 * runtime.NumCPU()
	if len(tasks) < numWorkers {
		numWorkers = len(tasks)
	}
	workQueue := make(chan task, 2*numWorkers)
	errs := make(chan error, 1)
	var written int64
	var wg sync.WaitGroup

	trySendError := func(err error) {
		select {
		case errs <- err:
		default:
		}
	}

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for t := range workQueue {
				if _, err := os.Stat(t.dst); err == nil {
					continue // Already exported by a previous run.
				}

				if o.ResizeLonger > 0 {
					img, _, err := loadImage(t.src)
					if err != nil {
						trySendError(err)
						continue
					}
					resized := resizeLonger(img, o.ResizeLonger, imaging.Box)
					if err := saveImage(t.dst, resized, o.JPEGQuality); err != nil {
						trySendError(err)
						continue
					}
				} else if err := copyFile(t.src, t.dst); err != nil {
					trySendError(err)
					continue
				}

				atomic.AddInt64(&written, 1)
			}
		}()
	}

	for _, t := range tasks {
		workQueue <- t
	}
	close(workQueue)
	wg.Wait()

	close(errs)
	if err := <-errs; err != nil {
		return int(written), err
	}

	slog.Info("Exported labeled frames", "written", written,
		"skipped", len(tasks)-int(written), "dir", outDir)
	return int(written), nil
}
