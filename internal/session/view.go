package session

import (
	"image"
	"strconv"
)

type View struct {
	Sources         [2]string
	Loaded          [2]bool
	DisplaySize     image.Point
	HasDiff         bool
	Identical       bool
	TotalPixels     *int
	DifferentPixels *int
}

func (s *State) View() View {
	v := View{
		Sources:     s.sources,
		Loaded:      [2]bool{s.images[0] != nil, s.images[1] != nil},
		DisplaySize: s.displaySize,
		HasDiff:     s.diff != nil,
	}
	if s.result != nil {
		total := s.result.TotalPixels
		different := s.result.DifferentPixels
		v.TotalPixels = &total
		v.DifferentPixels = &different
		v.Identical = s.result.Identical
	}
	return v
}

// IdenticalLabel is shown over the diff when the last comparison found no differences.
func (v View) IdenticalLabel() string {
	if v.HasDiff && v.Identical {
		return "Images are Identical"
	}
	return ""
}

func FormatCount(n *int) string {
	if n == nil {
		return "---"
	}

	digits := strconv.Itoa(*n)
	if len(digits) <= 3 {
		return digits
	}

	out := make([]byte, 0, len(digits)+len(digits)/3)
	pre := len(digits) % 3
	if pre > 0 {
		out = append(out, digits[:pre]...)
	}
	for i := pre; i < len(digits); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i:i+3]...)
	}
	return string(out)
}
