package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Seednode/sketchbox/canvas"
	"github.com/Seednode/sketchbox/drawing"
)

func TestHumanReadableSize(t *testing.T) {
	tests := map[int64]string{
		0:             "0 B",
		999:           "999 B",
		1000:          "1.0 kB",
		1536:          "1.5 kB",
		1_000_000:     "1.0 MB",
		2_500_000_000: "2.5 GB",
	}

	for in, want := range tests {
		if got := humanReadableSize(in); got != want {
			t.Errorf("humanReadableSize(%d) = %q, want %q", in, got, want)
		}
	}
}

func drawnCanvas(t *testing.T) *canvas.Canvas {
	t.Helper()

	c := canvas.New(40, 30)
	c.Configure(drawing.DefaultStyle())
	c.BeginPath()
	c.MoveTo(5, 5)
	c.LineTo(30, 20)
	c.Stroke()

	return c
}

func TestWriteSnapshot(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		prefix []byte
	}{
		{"png", "board.png", []byte("\x89PNG")},
		{"pdf", "board.PDF", []byte("%PDF-")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)

			n, err := writeSnapshot(path, drawnCanvas(t))
			if err != nil {
				t.Fatalf("writeSnapshot() error = %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if int64(len(data)) != n {
				t.Errorf("writeSnapshot() = %d bytes, file has %d", n, len(data))
			}
			if !bytes.HasPrefix(data, tt.prefix) {
				t.Errorf("file starts with %q, want %q", data[:min(len(data), 8)], tt.prefix)
			}
		})
	}
}

func TestWriteSnapshotRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.jpg")

	if _, err := writeSnapshot(path, drawnCanvas(t)); err == nil {
		t.Fatal("writeSnapshot() accepted a .jpg")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("writeSnapshot() created %s for an unsupported format", path)
	}
}
