// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(ErrInvalidAxis, "invalid 'w' axis")
	want := "[INVALID_AXIS] invalid 'w' axis"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorFormatWrapped(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := Wrap(cause, ErrStoreOpen, "cannot open store '/var/db.json'")
	got := err.Error()
	if !strings.Contains(got, "STORE_OPEN") || !strings.Contains(got, "permission denied") {
		t.Errorf("wrapped Error() = %q, want code and cause present", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk gone")
	err := InputUnavailableError("job.gcode", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestIs(t *testing.T) {
	err := InvalidUnitError("furlong")
	if !Is(err, ErrInvalidUnit) {
		t.Error("Is(ErrInvalidUnit) should be true")
	}
	if Is(err, ErrInvalidAxis) {
		t.Error("Is(ErrInvalidAxis) should be false")
	}
	if Is(fmt.Errorf("plain"), ErrInvalidUnit) {
		t.Error("Is on a plain error should be false")
	}
}

func TestCategoryPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		scan  bool
		store bool
		cfg   bool
	}{
		{"input unavailable", InputUnavailableError("f.gcode", fmt.Errorf("gone")), true, false, false},
		{"malformed param", New(ErrMalformedParam, "bad value"), true, false, false},
		{"store decode", StoreDecodeError("db.json", fmt.Errorf("bad json")), false, true, false},
		{"config option", ConfigOptionError("motion_minder", "db_path"), false, false, true},
		{"plain", fmt.Errorf("plain"), false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsScan(tt.err); got != tt.scan {
				t.Errorf("IsScan = %v, want %v", got, tt.scan)
			}
			if got := IsStore(tt.err); got != tt.store {
				t.Errorf("IsStore = %v, want %v", got, tt.store)
			}
			if got := IsConfig(tt.err); got != tt.cfg {
				t.Errorf("IsConfig = %v, want %v", got, tt.cfg)
			}
		})
	}
}

func TestContext(t *testing.T) {
	err := InputUnavailableError("job.gcode", fmt.Errorf("gone"))
	if err.Context["source"] != "job.gcode" {
		t.Errorf("Context[source] = %v, want job.gcode", err.Context["source"])
	}
	err.SetContext("line", 42)
	if err.Context["line"] != 42 {
		t.Errorf("Context[line] = %v, want 42", err.Context["line"])
	}
}

func TestAsHostError(t *testing.T) {
	he, ok := AsHostError(MaintenanceUnsetError("x"))
	if !ok {
		t.Fatal("AsHostError should succeed for a HostError")
	}
	if he.Code != ErrMaintenanceUnset {
		t.Errorf("Code = %s, want %s", he.Code, ErrMaintenanceUnset)
	}
	if _, ok := AsHostError(fmt.Errorf("plain")); ok {
		t.Error("AsHostError should fail for a plain error")
	}
}
