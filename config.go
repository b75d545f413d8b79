// Package cheese holds the application-wide pieces of the cheese webcam tool:
// configuration, the log sink, the single-instance lock, temporary storage and
// localization of user-facing messages.
package cheese

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/cheesecam/cheese/caps"
)

// ConfigFile is the name of the configuration file in the config directory.
const ConfigFile = "cheese.json"

// Backends for probing device capabilities.
const (
	BackendGstreamer = "gstreamer"
	BackendV4L2      = "v4l2"
)

// Config is the persistent configuration, read from ConfigFile.
type Config struct {
	AcceptedFormats []string      `json:"accepted_formats"` // Media types accepted from devices.
	MaxFramerate    caps.Fraction `json:"-"`
	MaxFramerateStr string        `json:"max_framerate"` // E.g. "30/1".
	ProbeTimeout    time.Duration `json:"-"`
	ProbeTimeoutStr string        `json:"probe_timeout"` // E.g. "10s".
	Backend         string        `json:"backend"`       // BackendGstreamer or BackendV4L2.
	PhotoDir        string        `json:"photo_dir"`
	ThumbnailSize   int           `json:"thumbnail_size"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		AcceptedFormats: append([]string{}, caps.DefaultAccepted...),
		MaxFramerate:    caps.DefaultMaxFramerate,
		ProbeTimeout:    10 * time.Second,
		Backend:         BackendGstreamer,
		PhotoDir:        filepath.Join(home, "Pictures", "Webcam"),
		ThumbnailSize:   128,
	}
}

// LoadConfig reads ConfigFile from dir. Fields not set in the file keep their
// default value. A missing file is not an error.
func LoadConfig(dir string) (Config, error) {
	c := DefaultConfig()
	p := filepath.Join(dir, ConfigFile)
	buf, err := ioutil.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var fc Config
	if err := json.Unmarshal(buf, &fc); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", p, err)
	}
	if len(fc.AcceptedFormats) > 0 {
		c.AcceptedFormats = fc.AcceptedFormats
	}
	if fc.MaxFramerateStr != "" {
		f, err := parseFramerate(fc.MaxFramerateStr)
		if err != nil {
			return Config{}, fmt.Errorf("config %s: %w", p, err)
		}
		c.MaxFramerate = f
	}
	if fc.ProbeTimeoutStr != "" {
		d, err := time.ParseDuration(fc.ProbeTimeoutStr)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("config %s: invalid probe_timeout %q", p, fc.ProbeTimeoutStr)
		}
		c.ProbeTimeout = d
	}
	switch fc.Backend {
	case "":
	case BackendGstreamer, BackendV4L2:
		c.Backend = fc.Backend
	default:
		return Config{}, fmt.Errorf("config %s: unknown backend %q", p, fc.Backend)
	}
	if fc.PhotoDir != "" {
		c.PhotoDir = fc.PhotoDir
	}
	if fc.ThumbnailSize < 0 {
		return Config{}, fmt.Errorf("config %s: thumbnail_size must be >= 0", p)
	} else if fc.ThumbnailSize > 0 {
		c.ThumbnailSize = fc.ThumbnailSize
	}
	return c, nil
}

func parseFramerate(s string) (caps.Fraction, error) {
	c, err := caps.Parse("x, framerate=(fraction)" + s)
	if err == nil && len(c) == 1 {
		if v, ok := c[0].Get("framerate"); ok {
			if f, ok := v.(caps.Fraction); ok && f.Den > 0 && f.Num > 0 {
				return f, nil
			}
		}
	}
	return caps.Fraction{}, fmt.Errorf("invalid max_framerate %q, expected e.g. 30/1", s)
}
