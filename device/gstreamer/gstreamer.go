// Package gstreamer probes camera devices with the gstreamer command line
// tools.
package gstreamer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"

	"github.com/cheesecam/cheese/caps"
	"github.com/cheesecam/cheese/device"
)

var errInstallHint = errors.New("executable not found, install with: sudo apt install -y gstreamer1.0-tools gstreamer1.0-plugins-good gstreamer1.0-plugins-base gstreamer1.0-plugins-base-apps")

// MonitorCommand is the command used to list devices and their capabilities.
var MonitorCommand = []string{"gst-device-monitor-1.0", "Video/Source"}

// Prober probes device capabilities with gst-device-monitor-1.0.
type Prober struct {
	Verbose bool
}

// Check that Prober implements interface Prober.
var _ device.Prober = (*Prober)(nil)

type monitorDevice struct {
	Name      string
	Class     string
	Path      string // Device node.
	SysfsPath string
	RawCaps   []string
	inCapMode bool
}

// Probe returns the capabilities of the device, as reported by the device
// monitor. Only video4linux api version 2 is supported, gstreamer 1.0 has no
// source for version 1.
func (p *Prober) Probe(ctx context.Context, id device.Identity) (caps.Caps, error) {
	if id.APIVersion == 1 {
		return nil, fmt.Errorf("%s: video4linux api version 1 is not supported by gstreamer 1.0", id.Node)
	}
	devs, err := monitor(ctx, p.Verbose)
	if err != nil {
		return nil, err
	}
	for _, d := range devs {
		if d.Path != id.Node {
			continue
		}
		c, err := caps.Parse(strings.Join(d.RawCaps, " "))
		if err != nil {
			return nil, fmt.Errorf("caps of %s: %w", id.Node, err)
		}
		if p.Verbose {
			log.Printf("gstreamer: device %s (%s) caps %s", d.Name, d.Path, c)
		}
		return c, nil
	}
	return nil, fmt.Errorf("device %s not found by device monitor", id.Node)
}

// ListDevices returns the video sources known to gstreamer.
// ListDevices returns an error if no devices are available.
func ListDevices(ctx context.Context) ([]device.Identity, error) {
	devs, err := monitor(ctx, false)
	if err != nil {
		return nil, err
	}
	var l []device.Identity
	for _, d := range devs {
		if d.Path == "" {
			continue
		}
		l = append(l, device.Identity{
			Node:       d.Path,
			UUID:       d.SysfsPath,
			Name:       d.Name,
			APIVersion: 2,
		})
	}
	if len(l) == 0 {
		return nil, fmt.Errorf("no devices found")
	}
	return l, nil
}

func monitor(ctx context.Context, verbose bool) ([]monitorDevice, error) {
	if verbose {
		log.Printf("gstreamer: running %s", strings.Join(MonitorCommand, " "))
	}
	cmd := exec.CommandContext(ctx, MonitorCommand[0], MonitorCommand[1:]...)
	buf, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = errInstallHint
		} else if ctx.Err() != nil {
			err = fmt.Errorf("%v: %w", err, ctx.Err())
		}
		return nil, fmt.Errorf("listing devices using %s: %w", MonitorCommand[0], err)
	}
	return parseMonitor(bytes.NewReader(buf))
}

// parseMonitor parses the output of gst-device-monitor-1.0, keeping only video
// sources.
func parseMonitor(r io.Reader) ([]monitorDevice, error) {
	var l []monitorDevice
	var d *monitorDevice
	flush := func() {
		if d != nil && d.Class == "Video/Source" {
			l = append(l, *d)
		}
	}

	b := bufio.NewScanner(r)
	for b.Scan() {
		s := strings.TrimSpace(b.Text())
		if s == "" {
			continue
		}
		if s == "Device found:" {
			flush()
			d = &monitorDevice{RawCaps: []string{}}
			continue
		}
		if d == nil {
			continue
		}

		key, value := split(s, ":")
		switch key {
		case "name":
			d.Name = value
			continue
		case "class":
			d.Class = value
			continue
		case "caps":
			d.RawCaps = append(d.RawCaps, value)
			d.inCapMode = true
			continue
		case "properties":
			d.inCapMode = false
			continue
		}
		if d.inCapMode {
			d.RawCaps = append(d.RawCaps, s)
			continue
		}

		key, value = split(s, "=")
		switch key {
		case "device.path", "api.v4l2.path":
			if d.Path == "" || key == "device.path" {
				d.Path = unquote(value)
			}
		case "sysfs.path":
			d.SysfsPath = unquote(value)
		}
	}
	if err := b.Err(); err != nil {
		return nil, err
	}
	flush()
	return l, nil
}

func split(s, sep string) (string, string) {
	t := strings.SplitN(s, sep, 2)
	if len(t) != 2 {
		return "", ""
	}
	return strings.TrimSpace(t[0]), strings.TrimSpace(t[1])
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
