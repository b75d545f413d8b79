// Package v4l2 probes camera devices directly through the video4linux2 ioctl
// interface, without gstreamer.
package v4l2

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/blackjack/webcam"

	"github.com/cheesecam/cheese/caps"
	"github.com/cheesecam/cheese/device"
)

// camera is the part of *webcam.Webcam used for probing.
type camera interface {
	GetSupportedFormats() map[webcam.PixelFormat]string
	GetSupportedFrameSizes(f webcam.PixelFormat) []webcam.FrameSize
	Close() error
}

var openCamera = func(node string) (camera, error) {
	cam, err := webcam.Open(node)
	if err != nil {
		return nil, err
	}
	return cam, nil
}

// Prober probes device capabilities by enumerating pixel formats and frame
// sizes of the device.
type Prober struct {
	Verbose bool
}

// Check that Prober implements interface Prober.
var _ device.Prober = (*Prober)(nil)

type result struct {
	caps caps.Caps
	err  error
}

// Probe opens the device, enumerates its capabilities and closes it again.
// Probe returns when ctx is done, even if the device does not respond.
func (p *Prober) Probe(ctx context.Context, id device.Identity) (caps.Caps, error) {
	if id.APIVersion == 1 {
		return nil, fmt.Errorf("%s: video4linux api version 1 is not supported", id.Node)
	}
	rc := make(chan result, 1)
	go func() {
		c, err := p.probe(id.Node)
		rc <- result{c, err}
	}()
	select {
	case r := <-rc:
		return r.caps, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("probing %s: %w", id.Node, ctx.Err())
	}
}

func (p *Prober) probe(node string) (caps.Caps, error) {
	cam, err := openCamera(node)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", node, err)
	}
	defer cam.Close()

	formats := cam.GetSupportedFormats()
	codes := make([]webcam.PixelFormat, 0, len(formats))
	for f := range formats {
		codes = append(codes, f)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	c := caps.Caps{}
	for _, f := range codes {
		cc := FourCC(f)
		if p.Verbose {
			log.Printf("v4l2: %s format %s (%s)", node, cc, formats[f])
		}
		for _, size := range cam.GetSupportedFrameSizes(f) {
			c = append(c, structure(cc, size))
		}
	}
	return c, nil
}

func structure(fourcc string, s webcam.FrameSize) caps.Structure {
	var w, h caps.Value
	switch {
	case s.MaxWidth == 0 || s.MaxHeight == 0:
		// Sizes the driver did not describe.
		w, h = caps.List{}, caps.List{}
	case s.MinWidth == s.MaxWidth && s.MinHeight == s.MaxHeight:
		w, h = caps.Int(s.MaxWidth), caps.Int(s.MaxHeight)
	default:
		w = caps.IntRange{Min: int(s.MinWidth), Max: int(s.MaxWidth)}
		h = caps.IntRange{Min: int(s.MinHeight), Max: int(s.MaxHeight)}
	}
	return caps.Structure{
		Name: MediaType(fourcc),
		Fields: []caps.Field{
			{Name: "format", Value: caps.String(fourcc)},
			{Name: "width", Value: w},
			{Name: "height", Value: h},
		},
	}
}

// FourCC returns the four character code of a pixel format, e.g. "YUYV".
func FourCC(f webcam.PixelFormat) string {
	return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
}

var rgbFormats = map[string]bool{
	"RGB1": true, "RGBO": true, "RGBP": true, "RGBQ": true, "RGBR": true,
	"BGR3": true, "RGB3": true, "BGR4": true, "RGB4": true,
	"AR24": true, "XR24": true, "BA24": true, "BX24": true,
}

var yuvFormats = map[string]bool{
	"YUYV": true, "YVYU": true, "UYVY": true, "VYUY": true,
	"NV12": true, "NV21": true, "NV16": true, "NV61": true,
	"YU12": true, "YV12": true, "422P": true, "411P": true, "Y41P": true,
}

// MediaType returns the media type for a pixel format: one of the raw rgb and
// yuv families, image/jpeg for compressed formats or video/x-unknown.
func MediaType(fourcc string) string {
	switch {
	case rgbFormats[fourcc]:
		return "video/x-raw-rgb"
	case yuvFormats[fourcc]:
		return "video/x-raw-yuv"
	case fourcc == "MJPG" || fourcc == "JPEG":
		return "image/jpeg"
	}
	return "video/x-unknown"
}
