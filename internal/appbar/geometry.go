package appbar

import (
	"math"

	"github.com/1broseidon/edgebar/internal/platform"
)

// CandidateRect returns the rectangle a bar of the given pixel size requests on
// edge of a monitor with the given bounds. Horizontal edges span the full
// monitor width; vertical edges span the full height.
func CandidateRect(bounds platform.Rect, edge platform.Edge, width, height int) platform.Rect {
	return anchor(bounds, edge, width, height)
}

// ClampThickness moves the far edge of r so the bar is exactly as thick as
// requested, measured from the near edge the shell returned. Shells do not
// reliably keep the thickness when they shift a rectangle.
func ClampThickness(r platform.Rect, edge platform.Edge, width, height int) platform.Rect {
	return anchor(r, edge, width, height)
}

// anchor keeps the edge-side coordinate of r and places the opposite one at
// the requested thickness.
func anchor(r platform.Rect, edge platform.Edge, width, height int) platform.Rect {
	switch edge {
	case platform.EdgeTop:
		r.Bottom = r.Top + height
	case platform.EdgeBottom:
		r.Top = r.Bottom - height
	case platform.EdgeLeft:
		r.Right = r.Left + width
	case platform.EdgeRight:
		r.Left = r.Right - width
	}
	return r
}

// Thickness is the size of r across edge.
func Thickness(r platform.Rect, edge platform.Edge) int {
	if edge.Horizontal() {
		return r.Height()
	}
	return r.Width()
}

func scalePixels(dip int, scale float64) int {
	if scale <= 0 {
		scale = 1
	}
	return int(math.Round(float64(dip) * scale))
}
