// Package device implements camera devices: probing a capture device for its
// capabilities and turning those into a catalog of video formats.
package device

import (
	"context"
	"fmt"
	"log"
	"time"

	cheese "github.com/cheesecam/cheese"
	"github.com/cheesecam/cheese/caps"
)

// DefaultProbeTimeout is how long a capability probe may take by default.
const DefaultProbeTimeout = 10 * time.Second

// Identity describes a capture device, as found by ListDevices or a device
// manager.
type Identity struct {
	Node       string // Device node, e.g. /dev/video0.
	UUID       string // Stable identifier of the hardware, may be empty.
	Name       string // Human-readable name. Empty means unknown.
	APIVersion int    // Video4Linux API version, 1 or 2. Zero means 2.
}

// Source returns the name of the GStreamer source element for the device.
func (id Identity) Source() string {
	if id.APIVersion == 1 {
		return "v4lsrc"
	}
	return "v4l2src"
}

// Prober retrieves the raw capabilities of a device.
type Prober interface {
	Probe(ctx context.Context, id Identity) (caps.Caps, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, id Identity) (caps.Caps, error)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, id Identity) (caps.Caps, error) {
	return f(ctx, id)
}

// Opts are options for a new Device.
type Opts struct {
	Verbose      bool
	Logger       *log.Logger   // If nil, the standard logger is used.
	ProbeTimeout time.Duration // If zero, DefaultProbeTimeout.
	Accepted     []string      // Accepted media types. If empty, caps.DefaultAccepted.
	MaxFramerate caps.Fraction // If zero, caps.DefaultMaxFramerate.
}

// Device is a camera device with its probed capabilities and video formats.
// The identity of a device does not change after New.
type Device struct {
	id      Identity
	opts    Opts
	caps    caps.Caps
	formats []VideoFormat

	constructErr error
}

// New validates the identity and probes the device for its capabilities, with
// a timeout. Failure to probe does not make New fail: the error is kept and
// returned by Init. An error is only returned for an invalid identity.
func New(id Identity, p Prober, opts *Opts) (*Device, error) {
	if id.Node == "" {
		return nil, fmt.Errorf("missing device node")
	}
	switch id.APIVersion {
	case 0:
		id.APIVersion = 2
	case 1, 2:
	default:
		return nil, fmt.Errorf("invalid video4linux api version %d, must be 1 or 2", id.APIVersion)
	}
	if id.Name == "" {
		id.Name = cheese.T("Unknown device")
	}

	d := &Device{id: id, caps: caps.Caps{}}
	if opts != nil {
		d.opts = *opts
	}
	if d.opts.ProbeTimeout <= 0 {
		d.opts.ProbeTimeout = DefaultProbeTimeout
	}
	if len(d.opts.Accepted) == 0 {
		d.opts.Accepted = caps.DefaultAccepted
	}
	if d.opts.MaxFramerate == (caps.Fraction{}) {
		d.opts.MaxFramerate = caps.DefaultMaxFramerate
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.opts.ProbeTimeout)
	defer cancel()
	raw, err := p.Probe(ctx, id)
	if err != nil {
		d.logf("probing %s (%s): %v", d.id.Name, d.id.Node, err)
		d.constructErr = &Error{
			Kind: KindProbeFailed,
			Node: id.Node,
			Msg:  cheese.T("Failed to initialize device %s for capability probing", id.Node),
			Err:  err,
		}
		return d, nil
	}
	if d.opts.Verbose {
		d.logf("device %s (%s), caps %s", d.id.Name, d.id.Node, raw)
	}
	d.constructErr = d.Refresh(raw)
	return d, nil
}

// Init returns the error that occurred while probing the device in New, if
// any. The same error is returned on every call, a failed probe is never
// retried. Cancellable initialization is not supported: Init fails
// immediately if ctx can be cancelled.
func (d *Device) Init(ctx context.Context) error {
	if ctx != nil && ctx.Done() != nil {
		return &Error{Kind: KindNotSupported, Node: d.id.Node, Msg: cheese.T("Cancellable initialization not supported")}
	}
	return d.constructErr
}

// Refresh replaces the capabilities of the device with raw, after filtering,
// and rebuilds the format catalog. Refresh returns an error of kind
// KindUnsupportedCaps if no usable format remains; the catalog is then empty.
func (d *Device) Refresh(raw caps.Caps) error {
	filtered := caps.Filter(raw, d.opts.Accepted, d.opts.MaxFramerate)
	if d.opts.Verbose {
		d.logf("filtered caps %s", filtered)
	}
	d.caps = filtered
	d.formats = Discover(filtered, d.logf)
	if d.opts.Verbose {
		for _, f := range d.formats {
			d.logf("format %s", f)
		}
	}
	if len(d.formats) == 0 {
		return &Error{Kind: KindUnsupportedCaps, Node: d.id.Node, Msg: cheese.T("Device capabilities not supported")}
	}
	return nil
}

func (d *Device) logf(format string, args ...interface{}) {
	if d.opts.Logger != nil {
		d.opts.Logger.Printf(format, args...)
	} else {
		log.Printf(format, args...)
	}
}

// Identity returns the identity of the device, with defaults filled in.
func (d *Device) Identity() Identity {
	return d.id
}

// Name returns the human-readable name.
func (d *Device) Name() string {
	return d.id.Name
}

// Node returns the device node.
func (d *Device) Node() string {
	return d.id.Node
}

// UUID returns the hardware identifier.
func (d *Device) UUID() string {
	return d.id.UUID
}

// APIVersion returns the video4linux api version, 1 or 2.
func (d *Device) APIVersion() int {
	return d.id.APIVersion
}

// Source returns the name of the GStreamer source element for the device.
func (d *Device) Source() string {
	return d.id.Source()
}

// Caps returns the filtered capabilities of the device.
func (d *Device) Caps() caps.Caps {
	return d.caps
}

// Formats returns the video formats of the device, largest first.
func (d *Device) Formats() []VideoFormat {
	return SortByArea(d.formats)
}

// BestFormat returns the video format with the largest area, or ErrNoFormats.
func (d *Device) BestFormat() (VideoFormat, error) {
	f, err := Best(d.formats)
	if err == nil && d.opts.Verbose {
		d.logf("best format %s", f)
	}
	return f, err
}

// CapsForFormat returns the device capabilities restricted to the accepted
// media types at exactly the resolution of f. The result is empty if the
// device cannot produce f.
func (d *Device) CapsForFormat(f VideoFormat) caps.Caps {
	r := caps.Caps{}
	for _, accepted := range d.opts.Accepted {
		for _, st := range d.caps {
			if caps.MediaType(st.Name) != accepted {
				continue
			}
			w, _ := st.Get("width")
			h, _ := st.Get("height")
			if !contains(w, f.Width) || !contains(h, f.Height) {
				continue
			}
			r = append(r, st.With("width", caps.Int(f.Width)).With("height", caps.Int(f.Height)))
		}
	}
	return r
}

func contains(v caps.Value, n int) bool {
	switch v := v.(type) {
	case caps.Int:
		return int(v) == n
	case caps.IntRange:
		return v.Min <= n && n <= v.Max
	case caps.List:
		for _, e := range v {
			if contains(e, n) {
				return true
			}
		}
	}
	return false
}
