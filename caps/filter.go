package caps

import (
	"strings"
)

// DefaultAccepted lists the raw media types accepted by default: the legacy rgb/yuv
// families and the unified GStreamer 1.0 raw type.
var DefaultAccepted = []string{
	"video/x-raw-rgb",
	"video/x-raw-yuv",
	"video/x-raw",
}

// DefaultMaxFramerate is the default framerate ceiling for Filter.
var DefaultMaxFramerate = Fraction{30, 1}

// Filter restricts c to the structures whose media type is in accepted and
// whose framerate does not exceed maxRate. Framerate ranges and lists are
// clamped to the ceiling. Structures without a framerate field are kept.
func Filter(c Caps, accepted []string, maxRate Fraction) Caps {
	r := Caps{}
	for _, st := range c {
		if !accepts(accepted, st.Name) {
			continue
		}
		v, ok := st.Get("framerate")
		if !ok {
			r = append(r, st)
			continue
		}
		nv, ok := clampRate(v, maxRate)
		if !ok {
			continue
		}
		r = append(r, st.With("framerate", nv))
	}
	return r
}

// MediaType returns the media type of a structure name, without caps features
// such as "(memory:NVMM)".
func MediaType(name string) string {
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

func accepts(accepted []string, name string) bool {
	name = MediaType(name)
	for _, a := range accepted {
		if a == name {
			return true
		}
	}
	return false
}

// clampRate intersects v with [0/1, max]. The second return value is false
// when the intersection is empty.
func clampRate(v Value, max Fraction) (Value, bool) {
	switch v := v.(type) {
	case Fraction:
		return v, !max.Less(v)
	case FractionRange:
		if max.Less(v.Min) {
			return nil, false
		}
		if max.Less(v.Max) {
			v.Max = max
		}
		if v.Min == v.Max {
			return v.Min, true
		}
		return v, true
	case List:
		l := List{}
		for _, e := range v {
			if ne, ok := clampRate(e, max); ok {
				l = append(l, ne)
			}
		}
		switch len(l) {
		case 0:
			return nil, false
		case 1:
			return l[0], true
		}
		return l, true
	}
	return v, true
}
