package export

import (
	"strconv"
	"strings"
)

// Eye is one viewpoint rendered per frame
type Eye struct {
	// Label is appended to file names; empty for mono
	Label string
	// Offset along the camera's right axis in world units
	Offset float64
}

// Eyes returns one unlabeled eye for separation 0, otherwise left then right
func Eyes(separation float64) []Eye {
	if separation == 0 {
		return []Eye{{}}
	}
	half := separation / 2
	return []Eye{
		{Label: "left", Offset: -half},
		{Label: "right", Offset: half},
	}
}

// PadWidth is the number of digits in the last frame index
func PadWidth(frameCount int) int {
	last := frameCount - 1
	if last < 0 {
		last = 0
	}
	return len(strconv.Itoa(last))
}

// FrameName builds prefix.<index>[.<eye>].<ext> with the index zero-padded to width
func FrameName(prefix string, index, width int, eye, ext string) string {
	idx := strconv.Itoa(index)
	if pad := width - len(idx); pad > 0 {
		idx = strings.Repeat("0", pad) + idx
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('.')
	b.WriteString(idx)
	if eye != "" {
		b.WriteByte('.')
		b.WriteString(eye)
	}
	b.WriteByte('.')
	b.WriteString(ext)
	return b.String()
}
