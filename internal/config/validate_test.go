// internal/config/validate_test.go
package config

import (
	"testing"

	"github.com/tamzrod/kneader-monitor/internal/decode"
)

// helper to build a normalized device quickly
func device(name string, addr uint8) Device {
	return Device{
		Name:          name,
		Address:       addr,
		CurrentWeight: SignalSpec{Register: 100, Count: 2, Type: decode.Float32, Order: decode.Normal},
		RecipeWeight:  SignalSpec{Register: 102, Count: 2, Type: decode.Float32, Order: decode.Normal},
		Ready:         SignalSpec{Register: 104, Count: 1, Type: decode.Bool, Order: decode.Normal},
	}
}

// ---- tests ----

func TestValidateDevices_OK(t *testing.T) {
	dl := &DeviceList{Kneaders: []Device{device("k1", 1), device("k2", 2)}}

	if err := ValidateDevices(dl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateDevices_EmptyListAllowed(t *testing.T) {
	if err := ValidateDevices(&DeviceList{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateDevices_AddressCollision(t *testing.T) {
	dl := &DeviceList{Kneaders: []Device{device("k1", 3), device("k2", 3)}}

	if err := ValidateDevices(dl); err == nil {
		t.Fatalf("expected collision error, got nil")
	}
}

func TestValidateDevices_AddressRange(t *testing.T) {
	for _, addr := range []uint8{0, 248, 255} {
		dl := &DeviceList{Kneaders: []Device{device("k", addr)}}
		if err := ValidateDevices(dl); err == nil {
			t.Fatalf("address %d: expected error, got nil", addr)
		}
	}
}

func TestValidateDevices_BadSignals(t *testing.T) {
	cases := map[string]func(d *Device){
		"unknown type":      func(d *Device) { d.CurrentWeight.Type = "float64" },
		"unknown order":     func(d *Device) { d.RecipeWeight.Order = "middle" },
		"zero count":        func(d *Device) { d.Ready.Count = 0 },
		"too many":          func(d *Device) { d.Ready.Count = 126 },
		"short float":       func(d *Device) { d.CurrentWeight.Count = 1 },
		"swapped needs two": func(d *Device) { d.CurrentWeight.Count = 4; d.CurrentWeight.Order = decode.Swapped },
		"window overflow":   func(d *Device) { d.RecipeWeight.Register = 0xFFFF },
		"bad equation":      func(d *Device) { d.CurrentWeight.Equation = "x *" },
		"bool equation":     func(d *Device) { d.Ready.Equation = "x * 2" },
		"missing name":      func(d *Device) { d.Name = "" },
	}

	for name, mutate := range cases {
		d := device("k", 1)
		mutate(&d)
		if err := ValidateDevices(&DeviceList{Kneaders: []Device{d}}); err == nil {
			t.Fatalf("%s: expected error, got nil", name)
		}
	}
}

func TestValidateDevices_DoesNotMutate(t *testing.T) {
	d := device("k", 1)
	d.CurrentWeight.Equation = "x / 10"
	dl := &DeviceList{Kneaders: []Device{d}}

	if err := ValidateDevices(dl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dl.Kneaders[0] != d {
		t.Fatalf("validate mutated device: got=%+v want=%+v", dl.Kneaders[0], d)
	}
}

func TestNormalizeDevices_Defaults(t *testing.T) {
	dl := &DeviceList{Kneaders: []Device{{
		Name:          " k1 ",
		Address:       1,
		CurrentWeight: SignalSpec{Register: 10},
		RecipeWeight:  SignalSpec{Register: 12, Type: "INT32", Order: "Swapped"},
		Ready:         SignalSpec{Register: 14},
	}}}

	NormalizeDevices(dl)
	d := dl.Kneaders[0]

	if d.Name != "k1" {
		t.Fatalf("name not trimmed: %q", d.Name)
	}
	if d.CurrentWeight.Type != decode.Float32 || d.CurrentWeight.Count != 2 || d.CurrentWeight.Order != decode.Normal {
		t.Fatalf("current weight defaults wrong: %+v", d.CurrentWeight)
	}
	if d.RecipeWeight.Type != decode.Int32 || d.RecipeWeight.Order != decode.Swapped || d.RecipeWeight.Count != 2 {
		t.Fatalf("recipe weight not canonicalised: %+v", d.RecipeWeight)
	}
	if d.Ready.Type != decode.Bool || d.Ready.Count != 1 {
		t.Fatalf("ready defaults wrong: %+v", d.Ready)
	}
	if err := ValidateDevices(dl); err != nil {
		t.Fatalf("normalized list should validate: %v", err)
	}
}
