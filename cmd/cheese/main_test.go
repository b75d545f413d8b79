package main

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cheesecam/cheese/device"
)

func TestSelectDevice(t *testing.T) {
	devs := []device.Identity{
		{Node: "/dev/video0", Name: "Integrated Camera", APIVersion: 2},
		{Node: "/dev/video2", Name: "USB Camera", APIVersion: 2},
	}
	listErr := errors.New("gst-device-monitor-1.0 failed")

	tests := []struct {
		name    string
		devs    []device.Identity
		listErr error
		node    string
		exp     device.Identity
		expErr  bool
	}{
		{"first", devs, nil, "", devs[0], false},
		{"explicit", devs, nil, "/dev/video2", devs[1], false},
		{"unlisted", devs, nil, "/dev/video4", device.Identity{Node: "/dev/video4"}, false},
		{"listing failed, explicit", nil, listErr, "/dev/video4", device.Identity{Node: "/dev/video4"}, false},
		{"listing failed", nil, listErr, "", device.Identity{}, true},
		{"none", nil, nil, "", device.Identity{}, true},
	}
	for _, tc := range tests {
		id, err := selectDevice(tc.devs, tc.listErr, tc.node)
		if (err != nil) != tc.expErr {
			t.Errorf("%s: got error %v, expected error %v", tc.name, err, tc.expErr)
			continue
		}
		if tc.listErr != nil && err != nil && !errors.Is(err, tc.listErr) {
			t.Errorf("%s: got %v, expected listing error", tc.name, err)
		}
		if !reflect.DeepEqual(id, tc.exp) {
			t.Errorf("%s: got %#v, expected %#v", tc.name, id, tc.exp)
		}
	}
}
