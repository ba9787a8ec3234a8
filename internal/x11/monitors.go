package x11

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display
type Monitor struct {
	ID      int
	Output  uint32
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// Contains reports whether the root coordinate (x, y) is on the monitor.
func (m Monitor) Contains(x, y int) bool {
	return x >= m.X && x < m.X+m.Width && y >= m.Y && y < m.Y+m.Height
}

// GetMonitors retrieves all active monitors using XRandR. The primary output
// comes first, the rest follow in CRTC order.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	conn := c.XUtil.Conn()

	resources, err := await(c, func() (*randr.GetScreenResourcesReply, error) {
		return randr.GetScreenResources(conn, c.Root).Reply()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := await(c, func() (*randr.GetOutputPrimaryReply, error) {
		return randr.GetOutputPrimary(conn, c.Root).Reply()
	}); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := await(c, func() (*randr.GetCrtcInfoReply, error) {
			return randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		})
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		output := crtcInfo.Outputs[0]
		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := await(c, func() (*randr.GetOutputInfoReply, error) {
			return randr.GetOutputInfo(conn, output, resources.ConfigTimestamp).Reply()
		})
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		isPrimary := false
		for _, o := range crtcInfo.Outputs {
			if o == primary && primary != 0 {
				isPrimary = true
			}
		}

		monitors = append(monitors, Monitor{
			ID:      i,
			Output:  uint32(output),
			Name:    outputName,
			X:       int(crtcInfo.X),
			Y:       int(crtcInfo.Y),
			Width:   int(crtcInfo.Width),
			Height:  int(crtcInfo.Height),
			Primary: isPrimary,
		})
	}

	sort.SliceStable(monitors, func(i, j int) bool {
		return monitors[i].Primary && !monitors[j].Primary
	})
	return monitors, nil
}

// Struts is the space other docks reserve on each side of a monitor.
type Struts struct {
	Left   int
	Right  int
	Top    int
	Bottom int
}

// DockStruts sums the struts that dock windows other than exclude reserve on
// monitor. Docks that only set _NET_WM_STRUT are treated as spanning the whole
// root window.
func (c *Connection) DockStruts(monitor Monitor, exclude xproto.Window) (Struts, error) {
	rootWidth, rootHeight, err := c.RootSize()
	if err != nil {
		return Struts{}, err
	}

	docks, err := c.DockClients()
	if err != nil {
		return Struts{}, err
	}

	var partials []ewmh.WmStrutPartial
	for _, windowID := range docks {
		if windowID == exclude {
			continue
		}

		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID); err == nil {
			partials = append(partials, *sp)
			continue
		}

		// Some docks only set _NET_WM_STRUT (no partial ranges).
		if s, err := ewmh.WmStrutGet(c.XUtil, windowID); err == nil {
			partials = append(partials, fullSpanStrut(s, rootWidth, rootHeight))
		}
	}

	return accumulateStruts(monitor, rootWidth, rootHeight, partials), nil
}

func fullSpanStrut(s *ewmh.WmStrut, rootWidth, rootHeight int) ewmh.WmStrutPartial {
	return ewmh.WmStrutPartial{
		Left:         s.Left,
		Right:        s.Right,
		Top:          s.Top,
		Bottom:       s.Bottom,
		LeftStartY:   0,
		LeftEndY:     uint(rootHeight - 1),
		RightStartY:  0,
		RightEndY:    uint(rootHeight - 1),
		TopStartX:    0,
		TopEndX:      uint(rootWidth - 1),
		BottomStartX: 0,
		BottomEndX:   uint(rootWidth - 1),
	}
}

func accumulateStruts(monitor Monitor, rootWidth, rootHeight int, partials []ewmh.WmStrutPartial) Struts {
	var acc Struts
	for i := range partials {
		updateStrutsForMonitor(monitor, rootWidth, rootHeight, &partials[i], &acc)
	}
	return acc
}

func updateStrutsForMonitor(monitor Monitor, rootWidth, rootHeight int, sp *ewmh.WmStrutPartial, acc *Struts) {
	monX1 := monitor.X
	monY1 := monitor.Y
	monX2 := monitor.X + monitor.Width
	monY2 := monitor.Y + monitor.Height

	// Top strut: y=[0,Top), x=[TopStartX,TopEndX]
	if sp.Top > 0 {
		x1 := int(sp.TopStartX)
		x2 := int(sp.TopEndX) + 1
		y1 := 0
		y2 := int(sp.Top)
		if isect := intersectionSize(monX1, monY1, monX2, monY2, x1, y1, x2, y2); isect.nonEmpty() {
			acc.Top = max(acc.Top, isect.h)
		}
	}

	// Bottom strut: y=[rootHeight-Bottom,rootHeight), x=[BottomStartX,BottomEndX]
	if sp.Bottom > 0 {
		x1 := int(sp.BottomStartX)
		x2 := int(sp.BottomEndX) + 1
		y2 := rootHeight
		y1 := rootHeight - int(sp.Bottom)
		if isect := intersectionSize(monX1, monY1, monX2, monY2, x1, y1, x2, y2); isect.nonEmpty() {
			acc.Bottom = max(acc.Bottom, isect.h)
		}
	}

	// Left strut: x=[0,Left), y=[LeftStartY,LeftEndY]
	if sp.Left > 0 {
		x1 := 0
		x2 := int(sp.Left)
		y1 := int(sp.LeftStartY)
		y2 := int(sp.LeftEndY) + 1
		if isect := intersectionSize(monX1, monY1, monX2, monY2, x1, y1, x2, y2); isect.nonEmpty() {
			acc.Left = max(acc.Left, isect.w)
		}
	}

	// Right strut: x=[rootWidth-Right,rootWidth), y=[RightStartY,RightEndY]
	if sp.Right > 0 {
		x2 := rootWidth
		x1 := rootWidth - int(sp.Right)
		y1 := int(sp.RightStartY)
		y2 := int(sp.RightEndY) + 1
		if isect := intersectionSize(monX1, monY1, monX2, monY2, x1, y1, x2, y2); isect.nonEmpty() {
			acc.Right = max(acc.Right, isect.w)
		}
	}
}

type intersection struct {
	w int
	h int
}

func (i intersection) nonEmpty() bool {
	return i.w > 0 && i.h > 0
}

func intersectionSize(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 int) intersection {
	x1 := max(ax1, bx1)
	y1 := max(ay1, by1)
	x2 := min(ax2, bx2)
	y2 := min(ay2, by2)

	if x2 <= x1 || y2 <= y1 {
		return intersection{}
	}
	return intersection{w: x2 - x1, h: y2 - y1}
}

// StrutFor builds the partial strut that reserves the rectangle (x, y, w, h)
// on side of a root window of the given size.
func StrutFor(side Side, x, y, w, h, rootWidth, rootHeight int) ewmh.WmStrutPartial {
	var sp ewmh.WmStrutPartial
	switch side {
	case SideTop:
		sp.Top = uint(max(0, y+h))
		sp.TopStartX = uint(max(0, x))
		sp.TopEndX = uint(max(0, x+w-1))
	case SideBottom:
		sp.Bottom = uint(max(0, rootHeight-y))
		sp.BottomStartX = uint(max(0, x))
		sp.BottomEndX = uint(max(0, x+w-1))
	case SideLeft:
		sp.Left = uint(max(0, x+w))
		sp.LeftStartY = uint(max(0, y))
		sp.LeftEndY = uint(max(0, y+h-1))
	case SideRight:
		sp.Right = uint(max(0, rootWidth-x))
		sp.RightStartY = uint(max(0, y))
		sp.RightEndY = uint(max(0, y+h-1))
	}
	return sp
}

// Side is a screen side in EWMH strut terms.
type Side int

const (
	SideLeft Side = iota
	SideTop
	SideRight
	SideBottom
)
