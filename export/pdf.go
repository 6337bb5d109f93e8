/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package export

import (
	"errors"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/Seednode/sketchbox/canvas"
	"github.com/Seednode/sketchbox/drawing"
)

var ErrEmptyPage = errors.New("page has zero size")

// WritePDF draws segments onto a single page the size of the canvas, one
// CSS pixel to one point.
func WritePDF(w io.Writer, width, height float64, style drawing.Style, segments []canvas.Segment) error {
	if width <= 0 || height <= 0 {
		return ErrEmptyPage
	}

	orientation := "P"
	if width > height {
		orientation = "L"
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	c := canvas.ParseColor(style.StrokeColor)
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	pdf.SetLineWidth(style.LineWidth)
	pdf.SetLineCapStyle(capStyle(style.LineCap))
	pdf.SetLineJoinStyle("round")

	for _, s := range segments {
		pdf.Line(s.From.X, s.From.Y, s.To.X, s.To.Y)
	}

	return pdf.Output(w)
}

func capStyle(lc drawing.LineCap) string {
	switch lc {
	case drawing.CapRound:
		return "round"
	case drawing.CapSquare:
		return "square"
	}
	return "butt"
}
