//go:build linux

package platform

import (
	"testing"

	"github.com/1broseidon/edgebar/internal/x11"
	"github.com/stretchr/testify/assert"
)

func TestShiftPastStruts_Edges(t *testing.T) {
	mon := RectFromXYWH(0, 0, 1920, 1080)
	struts := x11.Struts{Top: 28, Bottom: 40, Left: 64, Right: 10}

	tests := []struct {
		name string
		edge Edge
		in   Rect
		want Rect
	}{
		{"bottom moves up", EdgeBottom, Rect{0, 1050, 1920, 1080}, Rect{0, 1010, 1920, 1040}},
		{"top moves down", EdgeTop, Rect{0, 0, 1920, 30}, Rect{0, 28, 1920, 58}},
		{"left moves right", EdgeLeft, Rect{0, 0, 48, 1080}, Rect{64, 0, 112, 1080}},
		{"right moves left", EdgeRight, Rect{1872, 0, 1920, 1080}, Rect{1862, 0, 1910, 1080}},
		{"already clear", EdgeBottom, Rect{0, 1000, 1920, 1030}, Rect{0, 1000, 1920, 1030}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shiftPastStruts(tt.in, tt.edge, mon, struts))
		})
	}
}

func TestShiftPastStruts_SecondMonitor(t *testing.T) {
	mon := RectFromXYWH(1920, 0, 1280, 1024)
	got := shiftPastStruts(Rect{1920, 994, 3200, 1024}, EdgeBottom, mon, x11.Struts{Bottom: 24})
	assert.Equal(t, Rect{1920, 970, 3200, 1000}, got)
}

func TestClipRect(t *testing.T) {
	root := Rect{Right: 1920, Bottom: 1080}
	assert.Equal(t, Rect{0, 1050, 1920, 1080}, clipRect(Rect{-10, 1050, 2000, 1100}, root))
	assert.True(t, clipRect(Rect{2000, 0, 2100, 30}, root).Empty())
}

func TestSideFor(t *testing.T) {
	assert.Equal(t, x11.SideLeft, sideFor(EdgeLeft))
	assert.Equal(t, x11.SideTop, sideFor(EdgeTop))
	assert.Equal(t, x11.SideRight, sideFor(EdgeRight))
	assert.Equal(t, x11.SideBottom, sideFor(EdgeBottom))
}

func TestIsHostClass(t *testing.T) {
	auto := &X11Shell{}
	assert.True(t, auto.isHostClass("xfce4-panel", "Xfce4-panel"))
	assert.True(t, auto.isHostClass("polybar", "Polybar"))
	assert.False(t, auto.isHostClass("firefox", "Firefox"))

	configured := &X11Shell{hostClass: "MyPanel"}
	assert.True(t, configured.isHostClass("mypanel", ""))
	assert.False(t, configured.isHostClass("xfce4-panel", "Xfce4-panel"))
}

func TestMonitorFromX11(t *testing.T) {
	got := monitorFromX11(x11.Monitor{ID: 1, Output: 67, Name: "HDMI-1", X: 1920, Y: 0, Width: 1280, Height: 1024})
	assert.Equal(t, Monitor{
		Handle: 67,
		Device: "HDMI-1",
		Bounds: Rect{Left: 1920, Top: 0, Right: 3200, Bottom: 1024},
	}, got)
}
