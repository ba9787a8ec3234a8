package hotkeys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIgnoreMasks(t *testing.T) {
	const (
		caps   = 1 << 1
		num    = 1 << 4
		scroll = 1 << 7
	)

	tests := []struct {
		name              string
		caps, num, scroll uint16
		want              []uint16
	}{
		{"caps only", caps, 0, 0, []uint16{0, caps}},
		{"caps and num", caps, num, 0, []uint16{0, caps, num, caps | num}},
		{"all three", caps, num, scroll, []uint16{
			0, caps, num, caps | num, scroll, caps | scroll, num | scroll, caps | num | scroll,
		}},
		{"num shares caps mask", caps, caps, 0, []uint16{0, caps}},
		{"scroll shares num mask", caps, num, num, []uint16{0, caps, num, caps | num}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ignoreMasks(tt.caps, tt.num, tt.scroll))
		})
	}
}
