package device

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cheesecam/cheese/caps"
)

// ErrNoFormats is returned when a best format is requested from an empty catalog.
var ErrNoFormats = errors.New("no video formats available")

// VideoFormat is a capture resolution supported by a device.
type VideoFormat struct {
	Width  int
	Height int
}

// Area returns the number of pixels in a frame of this format.
func (f VideoFormat) Area() int {
	return f.Width * f.Height
}

func (f VideoFormat) String() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

// AddFormats appends each format not already present in catalog, comparing
// width and height exactly, and returns the updated catalog.
func AddFormats(catalog []VideoFormat, formats ...VideoFormat) []VideoFormat {
next:
	for _, f := range formats {
		for _, e := range catalog {
			if e == f {
				continue next
			}
		}
		catalog = append(catalog, f)
	}
	return catalog
}

// Discover turns caps into a catalog of distinct resolutions, in order of
// discovery.
//
// A structure with a fixed width and height yields that one format. A
// structure with width and height ranges is sampled with two walks: doubling
// from the minimums while both dimensions stay within their maximums, then
// halving from the maximums while both dimensions stay above their minimums.
// Structures of any other shape are reported through warn, if not nil, and
// skipped.
func Discover(c caps.Caps, warn func(format string, args ...interface{})) []VideoFormat {
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}
	catalog := []VideoFormat{}
	for _, st := range c {
		w, _ := st.Get("width")
		h, _ := st.Get("height")
		switch w := w.(type) {
		case caps.Int:
			hi, ok := h.(caps.Int)
			if !ok {
				warn("%s: height %v does not match width %v, skipping", st.Name, h, w)
				continue
			}
			if w <= 0 || hi <= 0 {
				warn("%s: invalid resolution %dx%d, skipping", st.Name, w, hi)
				continue
			}
			catalog = AddFormats(catalog, VideoFormat{int(w), int(hi)})
		case caps.IntRange:
			hr, ok := h.(caps.IntRange)
			if !ok {
				warn("%s: height %v does not match width %v, skipping", st.Name, h, w)
				continue
			}
			if w.Min <= 0 || hr.Min <= 0 {
				warn("%s: invalid resolution range %v x %v, skipping", st.Name, w, hr)
				continue
			}
			catalog = AddFormats(catalog, sampleRange(w, hr)...)
		default:
			warn("%s: width of type %T cannot be handled, skipping", st.Name, w)
		}
	}
	return catalog
}

// sampleRange walks a width/height range from both ends. Both walks include
// their starting point; the doubling walk may end exactly at the maximum, the
// halving walk stops once a dimension reaches its minimum.
func sampleRange(w, h caps.IntRange) []VideoFormat {
	var r []VideoFormat
	for cw, ch := w.Min, h.Min; cw <= w.Max && ch <= h.Max; cw, ch = cw*2, ch*2 {
		r = append(r, VideoFormat{cw, ch})
		// Doubling past half the maximum leaves the range, stop before it can overflow.
		if cw > w.Max/2 || ch > h.Max/2 {
			break
		}
	}
	for cw, ch := w.Max, h.Max; cw > w.Min && ch > h.Min; cw, ch = cw/2, ch/2 {
		r = append(r, VideoFormat{cw, ch})
	}
	return r
}

// SortByArea returns a copy of formats ordered by descending area. Formats of
// equal area keep their relative order.
func SortByArea(formats []VideoFormat) []VideoFormat {
	r := make([]VideoFormat, len(formats))
	copy(r, formats)
	sort.SliceStable(r, func(i, j int) bool {
		return r[i].Area() > r[j].Area()
	})
	return r
}

// Best returns the format with the largest area. Best returns ErrNoFormats for
// an empty catalog.
func Best(formats []VideoFormat) (VideoFormat, error) {
	if len(formats) == 0 {
		return VideoFormat{}, ErrNoFormats
	}
	return SortByArea(formats)[0], nil
}
