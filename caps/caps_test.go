package caps

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	const s = `video/x-raw, format=(string)YUY2, width=(int)[ 1, 1920 ], height=(int)480, framerate=(fraction){ 30/1, 15/1 }; image/jpeg, width=640, height=480, framerate=60/1`

	c, err := Parse(s)
	if err != nil {
		t.Fatalf("parsing caps: %v", err)
	}
	exp := Caps{
		{Name: "video/x-raw", Fields: []Field{
			{"format", String("YUY2")},
			{"width", IntRange{1, 1920}},
			{"height", Int(480)},
			{"framerate", List{Fraction{30, 1}, Fraction{15, 1}}},
		}},
		{Name: "image/jpeg", Fields: []Field{
			{"width", Int(640)},
			{"height", Int(480)},
			{"framerate", Fraction{60, 1}},
		}},
	}
	if !reflect.DeepEqual(c, exp) {
		t.Fatalf("parse, got %v, expected %v", c, exp)
	}
}

func TestParseDeviceMonitorSyntax(t *testing.T) {
	const s = `video/x-raw, format=YUY2, width=1280, height=720, pixel-aspect-ratio=1/1, framerate={ (fraction)10/1, (fraction)5/1 };`

	c, err := Parse(s)
	if err != nil {
		t.Fatalf("parsing caps: %v", err)
	}
	if len(c) != 1 {
		t.Fatalf("got %d structures, expected 1", len(c))
	}
	v, ok := c[0].Get("framerate")
	if !ok {
		t.Fatalf("missing framerate")
	}
	if exp := (List{Fraction{10, 1}, Fraction{5, 1}}); !reflect.DeepEqual(v, exp) {
		t.Fatalf("framerate, got %v, expected %v", v, exp)
	}
	if v, _ := c[0].Get("width"); v != Int(1280) {
		t.Fatalf("width, got %v, expected 1280", v)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, s := range []string{"", "EMPTY", "  "} {
		c, err := Parse(s)
		if err != nil {
			t.Fatalf("parsing %q: %v", s, err)
		}
		if !c.IsEmpty() {
			t.Fatalf("parsing %q, got %v, expected empty caps", s, c)
		}
	}
}

func TestParseErrors(t *testing.T) {
	bad := []string{
		"ANY",
		"video/x-raw, width",
		"video/x-raw, width=(int)[ 1 ]",
		"video/x-raw, width=(int)abc",
		"video/x-raw, width=[ 1, 2",
		"video/x-raw, format=\"YUY2",
	}
	for _, s := range bad {
		if _, err := Parse(s); err == nil {
			t.Errorf("missing error parsing %q", s)
		}
	}
}

func TestStringRoundtrip(t *testing.T) {
	c := Caps{
		{Name: "video/x-raw-yuv", Fields: []Field{
			{"format", String("YUY2")},
			{"width", IntRange{160, 1280}},
			{"height", Int(480)},
			{"framerate", FractionRange{Fraction{0, 1}, Fraction{30, 1}}},
		}},
	}
	s := c.String()
	const exp = "video/x-raw-yuv, format=(string)YUY2, width=(int)[ 160, 1280 ], height=(int)480, framerate=(fraction)[ 0/1, 30/1 ]"
	if s != exp {
		t.Fatalf("string, got %q, expected %q", s, exp)
	}
	nc, err := Parse(s)
	if err != nil {
		t.Fatalf("parsing rendered caps: %v", err)
	}
	if !reflect.DeepEqual(nc, c) {
		t.Fatalf("reparsed caps differ, got %v, expected %v", nc, c)
	}
}

func TestFilter(t *testing.T) {
	c := Caps{
		{Name: "video/x-raw-yuv", Fields: []Field{{"width", Int(640)}, {"height", Int(480)}, {"framerate", Fraction{30, 1}}}},
		{Name: "video/x-raw-rgb", Fields: []Field{{"width", Int(320)}, {"height", Int(240)}, {"framerate", Fraction{60, 1}}}},
		{Name: "image/jpeg", Fields: []Field{{"width", Int(1920)}, {"height", Int(1080)}}},
		{Name: "video/x-raw-yuv", Fields: []Field{{"width", Int(800)}, {"height", Int(600)}, {"framerate", FractionRange{Fraction{5, 1}, Fraction{60, 1}}}}},
		{Name: "video/x-raw-yuv", Fields: []Field{{"width", Int(1024)}, {"height", Int(768)}, {"framerate", List{Fraction{60, 1}, Fraction{15, 1}}}}},
		{Name: "video/x-raw-rgb", Fields: []Field{{"width", Int(160)}, {"height", Int(120)}}},
	}

	r := Filter(c, DefaultAccepted, DefaultMaxFramerate)
	exp := Caps{
		{Name: "video/x-raw-yuv", Fields: []Field{{"width", Int(640)}, {"height", Int(480)}, {"framerate", Fraction{30, 1}}}},
		{Name: "video/x-raw-yuv", Fields: []Field{{"width", Int(800)}, {"height", Int(600)}, {"framerate", FractionRange{Fraction{5, 1}, Fraction{30, 1}}}}},
		{Name: "video/x-raw-yuv", Fields: []Field{{"width", Int(1024)}, {"height", Int(768)}, {"framerate", Fraction{15, 1}}}},
		{Name: "video/x-raw-rgb", Fields: []Field{{"width", Int(160)}, {"height", Int(120)}}},
	}
	if !reflect.DeepEqual(r, exp) {
		t.Fatalf("filter, got %v, expected %v", r, exp)
	}

	// The input caps must be left untouched.
	if v, _ := c[3].Get("framerate"); v != (FractionRange{Fraction{5, 1}, Fraction{60, 1}}) {
		t.Fatalf("filter modified its input: %v", v)
	}

	if r := Filter(c, []string{"video/x-bayer"}, DefaultMaxFramerate); !r.IsEmpty() {
		t.Fatalf("filter with unmatched encodings, got %v, expected empty caps", r)
	}
}

func TestMediaType(t *testing.T) {
	if s := MediaType("video/x-raw(memory:NVMM)"); s != "video/x-raw" {
		t.Fatalf("media type, got %q", s)
	}
}
