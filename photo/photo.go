// Package photo takes still photos from a camera device with gst-launch-1.0,
// and makes thumbnails of them.
package photo

import (
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"

	cheese "github.com/cheesecam/cheese"
	"github.com/cheesecam/cheese/caps"
	"github.com/cheesecam/cheese/device"
)

var errInstallHint = errors.New("executable not found, install with: sudo apt install -y gstreamer1.0-tools gstreamer1.0-plugins-good gstreamer1.0-plugins-base")

// DefaultTimeout is how long Take waits for the camera by default.
const DefaultTimeout = 10 * time.Second

// Opts are options for Take.
type Opts struct {
	Verbose       bool
	Dir           string        // Destination directory, created if needed.
	ThumbnailSize int           // If > 0, also write a thumbnail of at most this size.
	Timeout       time.Duration // If zero, DefaultTimeout.
}

// launch starts the capture pipeline. Replaced in tests.
var launch = func(ctx context.Context, args []string) *exec.Cmd {
	return exec.CommandContext(ctx, "gst-launch-1.0", args...)
}

// pipelineArgs returns the gst-launch-1.0 arguments capturing a single frame
// from dev with caps st, written as jpeg into dir.
func pipelineArgs(dev *device.Device, st caps.Structure, dir string) []string {
	args := []string{
		dev.Source(),
		"device=" + dev.Node(),
		"num-buffers=1",
		"!",
		st.String(),
		"!",
	}
	if st.Name != rawVideo {
		args = append(args, "decodebin", "!")
	}
	return append(args,
		"videoconvert",
		"!",
		"jpegenc",
		"!",
		"multifilesink",
		"location="+filepath.Join(dir, "photo%05d.jpg"),
	)
}

const rawVideo = "video/x-raw"

// captureCaps returns the caps filter for the capture pipeline from the caps
// of a device for one format: the first structure, with the legacy raw rgb and
// yuv media types mapped to video/x-raw, keeping only the size and framerate.
// Pixel format names differ between probers, so they are left to negotiation.
func captureCaps(c caps.Caps) caps.Structure {
	st := c[0]
	r := caps.Structure{Name: caps.MediaType(st.Name)}
	switch r.Name {
	case "video/x-raw-rgb", "video/x-raw-yuv":
		r.Name = rawVideo
	}
	for _, k := range []string{"width", "height", "framerate"} {
		if v, ok := st.Get(k); ok {
			r = r.With(k, v)
		}
	}
	return r
}

// Take captures one photo from dev at format f and stores it in opts.Dir. Take
// returns the path of the photo.
func Take(ctx context.Context, dev *device.Device, f device.VideoFormat, opts Opts) (rpath string, rerr error) {
	fc := dev.CapsForFormat(f)
	if fc.IsEmpty() {
		return "", fmt.Errorf("format %s not supported by %s", f, dev.Node())
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logf := func(format string, args ...interface{}) {
		if opts.Verbose {
			log.Printf(format, args...)
		}
	}

	tempDir, cleanup, err := cheese.TempDir()
	if err != nil {
		return "", fmt.Errorf("making temp dir: %v", err)
	}
	defer cleanup()
	logf("photo, writing images to tempdir %s", tempDir)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return "", fmt.Errorf("new file change watcher: %v", err)
	}
	defer watcher.Close()
	if err := watcher.Add(tempDir); err != nil {
		return "", fmt.Errorf("registering file change watcher for temp dir: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	args := pipelineArgs(dev, captureCaps(fc), tempDir)
	logf("starting gstreamer as gst-launch-1.0 %s", strings.Join(args, " "))
	cmd := launch(ctx, args)
	cmd.Dir = tempDir
	if opts.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = errInstallHint
		}
		return "", fmt.Errorf("starting gstreamer with gst-launch-1.0: %v", err)
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	// The pipeline exits after one buffer; the file is complete once it has.
	var written string
	events, errs := watcher.Events, watcher.Errors
	for exited := false; !exited; {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && strings.HasSuffix(ev.Name, ".jpg") {
				written = ev.Name
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return "", fmt.Errorf("watching for changes: %v", err)
		case err := <-done:
			if err != nil {
				if ctx.Err() != nil {
					return "", fmt.Errorf("capturing photo from %s: %w", dev.Node(), ctx.Err())
				}
				return "", fmt.Errorf("capturing photo from %s: %v", dev.Node(), err)
			}
			exited = true
		}
	}
	if written == "" {
		// Events may still be queued after exit.
		matches, _ := filepath.Glob(filepath.Join(tempDir, "*.jpg"))
		if len(matches) == 0 {
			return "", fmt.Errorf("no photo written by gstreamer")
		}
		written = matches[0]
	}

	if err := checkJPEG(written); err != nil {
		return "", err
	}

	dst, err := destination(opts.Dir, time.Now())
	if err != nil {
		return "", err
	}
	if err := moveFile(written, dst); err != nil {
		return "", fmt.Errorf("storing photo: %v", err)
	}
	logf("photo, stored %s", dst)

	if opts.ThumbnailSize > 0 {
		thumb := ThumbnailPath(dst)
		if err := Thumbnail(dst, thumb, opts.ThumbnailSize); err != nil {
			return dst, fmt.Errorf("thumbnail for %s: %w", dst, err)
		}
		logf("photo, thumbnail %s", thumb)
	}
	return dst, nil
}

func checkJPEG(p string) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("open written file %q: %v", p, err)
	}
	defer f.Close()
	if _, err := jpeg.DecodeConfig(f); err != nil {
		return fmt.Errorf("decoding jpeg %q: %v", p, err)
	}
	return nil
}

// destination returns an unused file name in dir based on t.
func destination(dir string, t time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("making photo dir: %v", err)
	}
	base := t.Format("2006-01-02-150405")
	for i := 0; ; i++ {
		name := base + ".jpg"
		if i > 0 {
			name = fmt.Sprintf("%s-%d.jpg", base, i)
		}
		p := filepath.Join(dir, name)
		if _, err := os.Lstat(p); errors.Is(err, os.ErrNotExist) {
			return p, nil
		} else if err != nil {
			return "", err
		}
	}
}

// moveFile renames src to dst, copying if they are on different file systems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, unix.EXDEV) {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

// ThumbnailPath returns where the thumbnail of a photo is stored: a png file
// in the ".thumbnails" directory next to it.
func ThumbnailPath(photo string) string {
	base := strings.TrimSuffix(filepath.Base(photo), filepath.Ext(photo))
	return filepath.Join(filepath.Dir(photo), ".thumbnails", base+".png")
}

// Thumbnail writes a scaled-down copy of the image at src to dst, fitting
// within size by size pixels while keeping its aspect ratio. The image format
// of dst follows from its extension.
func Thumbnail(src, dst string, size int) error {
	if size <= 0 {
		return fmt.Errorf("thumbnail size must be > 0")
	}
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("opening image: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("making thumbnail dir: %v", err)
	}
	t := imaging.Fit(img, size, size, imaging.Lanczos)
	if err := imaging.Save(t, dst); err != nil {
		return fmt.Errorf("saving thumbnail: %v", err)
	}
	return nil
}
