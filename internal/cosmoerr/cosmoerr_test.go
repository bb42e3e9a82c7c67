package cosmoerr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := New(KindMapOrigin, "cosmology.NewTabulated", "zCMB_min=%f", 0.001)

	if !errors.Is(err, ErrMapOrigin) {
		t.Errorf("errors.Is(%v, ErrMapOrigin) = false", err)
	}
	if errors.Is(err, ErrMapDomain) {
		t.Errorf("errors.Is(%v, ErrMapDomain) = true", err)
	}

	wrapped := fmt.Errorf("loading model: %w", err)
	if !errors.Is(wrapped, ErrMapOrigin) {
		t.Error("kind lost through fmt.Errorf wrapping")
	}
	if got := KindOf(wrapped); got != KindMapOrigin {
		t.Errorf("KindOf = %v, want %v", got, KindMapOrigin)
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindDirection}, "direction"},
		{New(KindCoordSys, "frame.Translate", "coordSys=%q", "ecl"), `frame.Translate: coord_sys: coordSys="ecl"`},
		{Wrap(KindMapFormat, "hzmap.ReadFile", fs.ErrNotExist, "open %s", "hz.dat"), "hzmap.ReadFile: map_format: open hz.dat: file does not exist"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestWrapUnwraps(t *testing.T) {
	err := Wrap(KindTableWrite, "hzmap.WriteFile", fs.ErrPermission, "create")
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("wrapped cause not reachable")
	}
	if !errors.Is(err, ErrTableWrite) {
		t.Error("kind not matched")
	}
}

func TestKindOfForeignError(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf = %v, want unknown", got)
	}
	if got := Kind(99).String(); got != "kind(99)" {
		t.Errorf("String = %q", got)
	}
}
