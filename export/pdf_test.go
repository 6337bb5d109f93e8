package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Seednode/sketchbox/canvas"
	"github.com/Seednode/sketchbox/drawing"
	"github.com/Seednode/sketchbox/wire"
)

func TestWritePDF(t *testing.T) {
	segments := []canvas.Segment{
		{From: wire.Point{X: 5, Y: 5}, To: wire.Point{X: 10, Y: 10}},
		{From: wire.Point{X: 10, Y: 10}, To: wire.Point{X: 40, Y: 12}},
	}

	var buf bytes.Buffer
	if err := WritePDF(&buf, 300, 150, drawing.DefaultStyle(), segments); err != nil {
		t.Fatalf("WritePDF() error = %v", err)
	}

	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", buf.Bytes()[:min(8, buf.Len())])
	}
}

func TestWritePDFEmptyPage(t *testing.T) {
	err := WritePDF(&bytes.Buffer{}, 0, 100, drawing.DefaultStyle(), nil)
	if !errors.Is(err, ErrEmptyPage) {
		t.Errorf("WritePDF() error = %v, want ErrEmptyPage", err)
	}
}

func TestCapStyle(t *testing.T) {
	tests := map[drawing.LineCap]string{
		drawing.CapRound:  "round",
		drawing.CapSquare: "square",
		drawing.CapButt:   "butt",
		"":                "butt",
	}

	for in, want := range tests {
		if got := capStyle(in); got != want {
			t.Errorf("capStyle(%q) = %q, want %q", in, got, want)
		}
	}
}
