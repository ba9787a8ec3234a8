package x11

import (
	"testing"

	"github.com/BurntSushi/xgbutil/ewmh"
)

func TestAccumulateStruts_OnlyCountsOverlappingMonitor(t *testing.T) {
	// Two 1920x1080 monitors side by side; a 24px bottom dock on the right one.
	left := Monitor{X: 0, Y: 0, Width: 1920, Height: 1080}
	right := Monitor{X: 1920, Y: 0, Width: 1920, Height: 1080}
	dock := StrutFor(SideBottom, 1920, 1056, 1920, 24, 3840, 1080)

	if got := accumulateStruts(left, 3840, 1080, []ewmh.WmStrutPartial{dock}); got != (Struts{}) {
		t.Fatalf("left monitor struts = %+v, want none", got)
	}
	if got := accumulateStruts(right, 3840, 1080, []ewmh.WmStrutPartial{dock}); got.Bottom != 24 {
		t.Fatalf("right monitor bottom strut = %d, want 24", got.Bottom)
	}
}

func TestAccumulateStruts_TakesLargestPerSide(t *testing.T) {
	mon := Monitor{X: 0, Y: 0, Width: 1920, Height: 1080}
	partials := []ewmh.WmStrutPartial{
		StrutFor(SideTop, 0, 0, 1920, 28, 1920, 1080),
		StrutFor(SideTop, 0, 0, 800, 40, 1920, 1080),
		StrutFor(SideLeft, 0, 0, 64, 1080, 1920, 1080),
	}

	got := accumulateStruts(mon, 1920, 1080, partials)
	want := Struts{Top: 40, Left: 64}
	if got != want {
		t.Fatalf("struts = %+v, want %+v", got, want)
	}
}

func TestStrutFor_Sides(t *testing.T) {
	tests := []struct {
		name string
		side Side
		geom [4]int
		want ewmh.WmStrutPartial
	}{
		{
			name: "top",
			side: SideTop,
			geom: [4]int{0, 0, 1920, 30},
			want: ewmh.WmStrutPartial{Top: 30, TopStartX: 0, TopEndX: 1919},
		},
		{
			name: "bottom",
			side: SideBottom,
			geom: [4]int{0, 1050, 1920, 30},
			want: ewmh.WmStrutPartial{Bottom: 30, BottomStartX: 0, BottomEndX: 1919},
		},
		{
			name: "left",
			side: SideLeft,
			geom: [4]int{0, 0, 48, 1080},
			want: ewmh.WmStrutPartial{Left: 48, LeftStartY: 0, LeftEndY: 1079},
		},
		{
			name: "right on second monitor",
			side: SideRight,
			geom: [4]int{3792, 0, 48, 1080},
			want: ewmh.WmStrutPartial{Right: 48, RightStartY: 0, RightEndY: 1079},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StrutFor(tt.side, tt.geom[0], tt.geom[1], tt.geom[2], tt.geom[3], 3840, 1080)
			if got != tt.want {
				t.Fatalf("StrutFor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	got, err := ParseColor("#202020")
	if err != nil {
		t.Fatalf("ParseColor() error: %v", err)
	}
	if got != 0x202020 {
		t.Fatalf("ParseColor() = %#x, want 0x202020", got)
	}

	for _, bad := range []string{"", "#fff", "red", "#gg0000"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("ParseColor(%q) expected error", bad)
		}
	}
}
