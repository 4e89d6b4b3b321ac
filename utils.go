package poseinterface

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// filesByExtInDir returns all regular files with file extension ext found
// directly in directory dirPath. All files are returned if ext is empty.
func filesByExtInDir(dirPath, ext string) (files []string, err error) {
	dirInfo, err := os.Stat(dirPath)
	if err != nil || !dirInfo.IsDir() {
		return nil, fmt.Errorf("cannot read directory %q: %v", dirPath, err)
	}
	dir, err := os.Open(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access %q: %v", dirPath, err)
	}
	defer closeWithErrCheck(dir, &err)

	pathWithSep := dirPath
	if !strings.HasSuffix(dirPath, string(os.PathSeparator)) {
		pathWithSep = dirPath + string(os.PathSeparator)
	}

	files = make([]string, 0, 100)
	var fileList []os.FileInfo
	for fileList, err = dir.Readdir(100); len(fileList) > 0; fileList, err = dir.Readdir(100) {
		for _, file := range fileList {
			name := file.Name()
			// Must be a regular file or a symlink and have the requested
			// extension/suffix.
			if (!file.Mode().IsRegular() && (file.Mode()&os.ModeSymlink == 0)) ||
					!strings.HasSuffix(name, ext) {
				continue
			}
			files = append(files, pathWithSep+name)
		}
	}
	if err != nil && err != io.EOF {
		slog.Warn("Failed to access some files", "dir", dirPath, "error", err)
	}

	return files, nil
}

// copyFile copies the file at src to dst, creating or truncating dst.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(out, &err)

	_, err = io.Copy(out, in)
	return err
}

// resolveFrameFile locates the file for a frame path taken from an
// annotations file. The annotations may sit at the project root (frame paths
// are relative to it) or inside the video folder next to the frames, so both
// interpretations are tried.
func resolveFrameFile(sourceDir, framePath string) (string, bool) {
	candidates := []string{
		filepath.Join(sourceDir, filepath.FromSlash(framePath)),
		filepath.Join(sourceDir, filepath.Base(filepath.FromSlash(framePath))),
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil),
// e is set to that error.
func closeWithErrCheck(c io.Closer, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}
