package gstreamer

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cheesecam/cheese/caps"
	"github.com/cheesecam/cheese/device"
)

const monitorOutput = `Probing devices...


Device found:

	name  : Integrated Camera: Integrated C
	class : Video/Source
	caps  : video/x-raw, format=YUY2, width=640, height=480, pixel-aspect-ratio=1/1, framerate=30/1;
	        video/x-raw, format=YUY2, width=(int)[ 160, 320 ], height=(int)[ 120, 240 ], framerate={ (fraction)30/1, (fraction)15/1 };
	        image/jpeg, width=1280, height=720, pixel-aspect-ratio=1/1, framerate=30/1;
	properties:
		udev-probed = true
		device.bus_path = pci-0000:00:14.0-usb-0:8:1.0
		sysfs.path = /sys/devices/pci0000:00/0000:00:14.0/usb1/1-8/1-8:1.0/video4linux/video0
		device.product.name = "Integrated Camera: Integrated C"
		api.v4l2.path = /dev/video0
		device.path = /dev/video0
	gst-launch-1.0 v4l2src ! ...


Device found:

	name  : Built-in Audio Analog Stereo
	class : Audio/Source
	caps  : audio/x-raw, format=S16LE, layout=interleaved, rate=44100, channels=2;
	properties:
		device.path = hw:0


Device found:

	name  : USB Camera
	class : Video/Source
	caps  : image/jpeg, width=1920, height=1080, framerate=30/1;
	properties:
		api.v4l2.path = /dev/video2
`

func TestParseMonitor(t *testing.T) {
	l, err := parseMonitor(strings.NewReader(monitorOutput))
	if err != nil {
		t.Fatalf("parsing monitor output: %v", err)
	}
	if len(l) != 2 {
		t.Fatalf("got %d devices, expected 2: %#v", len(l), l)
	}
	d := l[0]
	if d.Name != "Integrated Camera: Integrated C" || d.Path != "/dev/video0" || !strings.HasSuffix(d.SysfsPath, "/video4linux/video0") {
		t.Fatalf("unexpected device %#v", d)
	}
	if len(d.RawCaps) != 3 {
		t.Fatalf("got %d caps lines, expected 3", len(d.RawCaps))
	}
	if l[1].Path != "/dev/video2" || l[1].Name != "USB Camera" {
		t.Fatalf("unexpected device %#v", l[1])
	}
}

func withMonitorOutput(t *testing.T, output string) {
	t.Helper()
	p := filepath.Join(t.TempDir(), "monitor.txt")
	if err := os.WriteFile(p, []byte(output), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	orig := MonitorCommand
	MonitorCommand = []string{"cat", p}
	t.Cleanup(func() { MonitorCommand = orig })
}

func TestProbe(t *testing.T) {
	withMonitorOutput(t, monitorOutput)

	p := &Prober{}
	c, err := p.Probe(context.Background(), device.Identity{Node: "/dev/video0", APIVersion: 2})
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if len(c) != 3 {
		t.Fatalf("got %d structures, expected 3: %v", len(c), c)
	}
	if v, _ := c[1].Get("width"); v != (caps.IntRange{Min: 160, Max: 320}) {
		t.Fatalf("width of second structure, got %v", v)
	}

	// Caps from the probe feed into a device and its format catalog.
	d, err := device.New(device.Identity{Node: "/dev/video0"}, p, nil)
	if err != nil {
		t.Fatalf("new device: %v", err)
	}
	if err := d.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	exp := []device.VideoFormat{{Width: 640, Height: 480}, {Width: 320, Height: 240}, {Width: 160, Height: 120}}
	if !reflect.DeepEqual(d.Formats(), exp) {
		t.Fatalf("formats, got %v, expected %v", d.Formats(), exp)
	}

	if _, err := p.Probe(context.Background(), device.Identity{Node: "/dev/video9"}); err == nil {
		t.Fatalf("missing error for unknown device")
	}
	if _, err := p.Probe(context.Background(), device.Identity{Node: "/dev/video0", APIVersion: 1}); err == nil {
		t.Fatalf("missing error for api version 1")
	}
}

func TestListDevices(t *testing.T) {
	withMonitorOutput(t, monitorOutput)

	l, err := ListDevices(context.Background())
	if err != nil {
		t.Fatalf("listing devices: %v", err)
	}
	if len(l) != 2 || l[0].Node != "/dev/video0" || l[1].Node != "/dev/video2" || l[1].UUID != "" {
		t.Fatalf("unexpected devices %#v", l)
	}

	withMonitorOutput(t, "Probing devices...\n")
	if _, err := ListDevices(context.Background()); err == nil {
		t.Fatalf("missing error for no devices")
	}
}

func TestMissingExecutable(t *testing.T) {
	orig := MonitorCommand
	MonitorCommand = []string{"gst-device-monitor-does-not-exist"}
	defer func() { MonitorCommand = orig }()

	_, err := ListDevices(context.Background())
	if err == nil || !strings.Contains(err.Error(), "install with") {
		t.Fatalf("got %v, expected install hint", err)
	}
}
