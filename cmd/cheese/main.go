// Command cheese probes webcams for the video formats they support, and takes
// photos with them.
//
// Examples:
//
//	# List available devices and quit.
//	cheese -listdevices
//
//	# Print the formats of the first device, largest first.
//	cheese -formats
//
//	# Take a photo at the best format of an explicit device, probing with v4l2.
//	cheese -backend v4l2 -device /dev/video2 -verbose -photo
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	cheese "github.com/cheesecam/cheese"
	"github.com/cheesecam/cheese/device"
	"github.com/cheesecam/cheese/device/gstreamer"
	"github.com/cheesecam/cheese/device/v4l2"
	"github.com/cheesecam/cheese/photo"
)

var (
	listDevices bool
	showFormats bool
	takePhoto   bool
	deviceNode  string
	backend     string
	configDir   string
	verbose     bool
)

func init() {
	flag.BoolVar(&listDevices, "listdevices", false, "if set, lists devices and exits")
	flag.BoolVar(&showFormats, "formats", false, "if set, prints the video formats of the device, largest first, and exits")
	flag.BoolVar(&takePhoto, "photo", false, "if set, takes a photo at the best format of the device")
	flag.StringVar(&deviceNode, "device", "", "device node to use, e.g. /dev/video0, by default the first device returned when listing devices")
	flag.StringVar(&backend, "backend", "", "backend for probing devices, gstreamer or v4l2, by default as configured")
	flag.StringVar(&configDir, "config", "", "directory with "+cheese.ConfigFile+", by default $XDG_CONFIG_HOME/cheese")
	flag.BoolVar(&verbose, "verbose", false, "print verbose output")
}

func usage() {
	log.Println("usage: cheese [flags]")
	log.Println(cheese.T("Take photos and videos with your webcam"))
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	os.Exit(main0(args))
}

func main0(args []string) int {
	if len(args) != 0 {
		usage()
	}

	app, err := cheese.Start(cheese.Options{
		Verbose:   verbose,
		Device:    deviceNode,
		ConfigDir: configDir,
	})
	if err != nil {
		log.Printf("start: %v", err)
		return 1
	}
	defer app.Close()

	if backend == "" {
		backend = app.Config.Backend
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var prober device.Prober
	var devs []device.Identity
	switch backend {
	case cheese.BackendGstreamer:
		prober = &gstreamer.Prober{Verbose: verbose}
		devs, err = gstreamer.ListDevices(ctx)
	case cheese.BackendV4L2:
		prober = &v4l2.Prober{Verbose: verbose}
		devs, err = device.ListDevices()
	default:
		log.Printf("unknown backend %q", backend)
		return 2
	}
	if listDevices {
		if err != nil {
			log.Printf("listing devices: %v", err)
			return 1
		}
		for _, id := range devs {
			name := id.Name
			if name == "" {
				name = cheese.T("Unknown device")
			}
			fmt.Printf("%s: %s\n", id.Node, name)
		}
		return 0
	}

	id, err := selectDevice(devs, err, app.Opts.Device)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	app.Logf("using device %s (%s), backend %s", id.Node, id.Name, backend)

	dev, err := device.New(id, prober, &device.Opts{
		Verbose:      verbose,
		Logger:       app.Log,
		ProbeTimeout: app.Config.ProbeTimeout,
		Accepted:     app.Config.AcceptedFormats,
		MaxFramerate: app.Config.MaxFramerate,
	})
	if err != nil {
		log.Printf("new device: %v", err)
		return 1
	}
	// Initialization cannot be cancelled, so no ctx here.
	if err := dev.Init(context.Background()); err != nil {
		var derr *device.Error
		if errors.As(err, &derr) {
			app.Logf("init %s: %s: %v", derr.Node, derr.Kind, err)
			log.Printf("%s", derr.Msg)
		} else {
			log.Printf("init %s: %v", id.Node, err)
		}
		return 1
	}

	best, err := dev.BestFormat()
	if err != nil {
		log.Printf("best format: %v", err)
		return 1
	}

	if showFormats {
		for _, f := range dev.Formats() {
			mark := " "
			if f == best {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, f)
		}
		return 0
	}

	if !takePhoto {
		fmt.Printf("%s: %s, best format %s\n", dev.Node(), dev.Name(), best)
		return 0
	}

	p, err := photo.Take(ctx, dev, best, photo.Opts{
		Verbose:       verbose,
		Dir:           app.Config.PhotoDir,
		ThumbnailSize: app.Config.ThumbnailSize,
	})
	if err != nil {
		log.Printf("taking photo: %v", err)
		if p == "" {
			return 1
		}
	}
	app.Logf("photo %s", p)
	fmt.Println(p)
	return 0
}

// selectDevice picks the device with node from devs, or the first device if
// node is empty. An explicit node is used even when it is not listed, or when
// listing failed with listErr, e.g. because the device monitor skipped it.
func selectDevice(devs []device.Identity, listErr error, node string) (device.Identity, error) {
	if node == "" {
		if listErr != nil {
			return device.Identity{}, fmt.Errorf("listing devices: %w", listErr)
		}
		if len(devs) == 0 {
			return device.Identity{}, fmt.Errorf("no devices found")
		}
		return devs[0], nil
	}
	for _, d := range devs {
		if d.Node == node {
			return d, nil
		}
	}
	if listErr != nil {
		log.Printf("listing devices: %v, probing %s anyway", listErr, node)
	}
	return device.Identity{Node: node}, nil
}
