/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Seednode/sketchbox/canvas"
	"github.com/Seednode/sketchbox/export"
)

func humanReadableSize(bytes int64) string {
	const unit int64 = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(bytes)/float64(div),
		"kMGTPE"[exp])
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// writeSnapshot saves the canvas as PNG or PDF depending on the extension
// of path, and returns the number of bytes written.
func writeSnapshot(path string, c *canvas.Canvas) (int64, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".pdf" {
		return 0, fmt.Errorf("unsupported snapshot format %q (want .png or .pdf)", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := &countingWriter{w: f}

	switch ext {
	case ".png":
		err = c.EncodePNG(w)
	case ".pdf":
		width, height := c.Size()
		err = export.WritePDF(w, width, height, c.Style(), c.Segments())
	}
	if err != nil {
		return w.n, err
	}

	return w.n, f.Close()
}
