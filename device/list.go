package device

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Major device number of video4linux character devices.
const v4lMajor = 81

// ListDevices returns the video capture devices on the system, from
// /sys/class/video4linux. Metadata nodes and nodes that are not video4linux
// character devices are skipped. ListDevices returns an error if no devices
// are available.
func ListDevices() ([]Identity, error) {
	return listDevices("/sys/class/video4linux", "/dev", checkCharDevice)
}

func listDevices(sysDir, devDir string, check func(path string) error) ([]Identity, error) {
	entries, err := ioutil.ReadDir(sysDir)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	var l []Identity
	for _, e := range entries {
		base := e.Name()
		if _, err := strconv.Atoi(strings.TrimPrefix(base, "video")); !strings.HasPrefix(base, "video") || err != nil {
			continue
		}
		dir := filepath.Join(sysDir, base)
		// Only index 0 is the capture node, others carry metadata.
		if idx := readFirstLine(filepath.Join(dir, "index")); idx != "" && idx != "0" {
			continue
		}
		node := filepath.Join(devDir, base)
		if err := check(node); err != nil {
			continue
		}
		id := Identity{
			Node:       node,
			Name:       readFirstLine(filepath.Join(dir, "name")),
			APIVersion: 2,
		}
		if p, err := filepath.EvalSymlinks(filepath.Join(dir, "device")); err == nil {
			id.UUID = p
		}
		l = append(l, id)
	}
	sort.Slice(l, func(i, j int) bool {
		return nodeNumber(l[i].Node) < nodeNumber(l[j].Node)
	})
	if len(l) == 0 {
		return nil, fmt.Errorf("no devices found")
	}
	return l, nil
}

func nodeNumber(node string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(filepath.Base(node), "video"))
	return n
}

func checkCharDevice(path string) error {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return err
	}
	if st.Mode&unix.S_IFMT != unix.S_IFCHR {
		return fmt.Errorf("%s: not a character device", path)
	}
	if m := unix.Major(uint64(st.Rdev)); m != v4lMajor {
		return fmt.Errorf("%s: not a video4linux device (major %d)", path, m)
	}
	return nil
}

func readFirstLine(path string) string {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return ""
	}
	s := string(buf)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
