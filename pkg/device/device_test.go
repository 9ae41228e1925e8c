package device

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/Opendigitalradio/libdabdevice/pkg/samples"
	"github.com/Opendigitalradio/libdabdevice/pkg/types"
)

func gains(values ...float32) []types.Gain {
	ret := make([]types.Gain, len(values))
	for idx, v := range values {
		ret[idx] = types.DB(v)
	}
	return ret
}

func TestNearestGain(t *testing.T) {
	tests := []struct {
		name   string
		table  []types.Gain
		target types.Gain
		want   types.Gain
	}{
		{"exact", gains(0, 9, 14, 27), types.DB(14), types.DB(14)},
		{"between", gains(0, 9, 14, 27), types.DB(20), types.DB(14)},
		{"below", gains(0, 9, 14, 27), types.DB(-10), types.DB(0)},
		{"above", gains(0, 9, 14, 27), types.DB(100), types.DB(27)},
		{"unsorted", gains(27, 0, 14, 9), types.DB(10), types.DB(9)},
		{"tie keeps first", gains(10, 20), types.DB(15), types.DB(10)},
		{"tie keeps first unsorted", gains(20, 10), types.DB(15), types.DB(20)},
		{"single", gains(3), types.DB(40), types.DB(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NearestGain(tt.table, tt.target)
			if !ok || got != tt.want {
				t.Errorf("NearestGain() = %v %v, want %v", got, ok, tt.want)
			}
		})
	}
}

func TestNearestGainEmpty(t *testing.T) {
	if _, ok := NearestGain(nil, types.DB(10)); ok {
		t.Errorf("expected no gain from an empty table")
	}
}

func TestNearestGainIsClosest(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 500; round++ {
		table := make([]types.Gain, 1+rng.Intn(30))
		for idx := range table {
			table[idx] = types.DB(float32(rng.Intn(500)) / 10)
		}
		target := types.DB(float32(rng.Intn(600)-50) / 10)

		got, _ := NearestGain(table, target)
		firstAtMin := -1
		for idx, g := range table {
			if g.Distance(target) < got.Distance(target) {
				t.Fatalf("round %d: %v closer to %v than %v", round, g, target, got)
			}
			if firstAtMin < 0 && g.Distance(target) == got.Distance(target) {
				firstAtMin = idx
			}
		}
		if table[firstAtMin] != got {
			t.Fatalf("round %d: tie not resolved to first entry", round)
		}
	}
}

func TestDescriptorEqual(t *testing.T) {
	a := Descriptor{ID: 1, Serial: "00000001", Kind: "RTL2838UHIDIR", Manufacturer: "Realtek", Type: "rtlsdr"}
	tests := []struct {
		name string
		b    Descriptor
		want bool
	}{
		{"identical", a, true},
		{"other fields differ", Descriptor{ID: 1, Serial: "x", Kind: "y", Manufacturer: "z", Type: "rtlsdr"}, true},
		{"id differs", Descriptor{ID: 2, Serial: a.Serial, Type: "rtlsdr"}, false},
		{"type differs", Descriptor{ID: 1, Serial: a.Serial, Type: "file"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDescriptorsConcatenates(t *testing.T) {
	first := Kind{Type: "a", Descriptors: func() []Descriptor {
		return []Descriptor{{ID: 0, Type: "a"}, {ID: 1, Type: "a"}}
	}}
	second := Kind{Type: "b", Descriptors: func() []Descriptor {
		return []Descriptor{{ID: 0, Type: "b"}}
	}}
	empty := Kind{Type: "c"}

	got := Descriptors(first, second, empty, first)
	want := []Descriptor{
		{ID: 0, Type: "a"}, {ID: 1, Type: "a"},
		{ID: 0, Type: "b"},
		{ID: 0, Type: "a"}, {ID: 1, Type: "a"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d descriptors, want %d", len(got), len(want))
	}
	for idx := range want {
		if !got[idx].Equal(want[idx]) {
			t.Errorf("descriptor %d = %v, want %v", idx, got[idx], want[idx])
		}
	}
}

func TestOpenWithoutConstructor(t *testing.T) {
	if _, err := Open(Kind{Type: "nothing"}, samples.NewQueue(1), Config{}); err == nil {
		t.Errorf("expected error")
	}
}

func TestConfigGain(t *testing.T) {
	if _, ok := (Config{}).Gain(); ok {
		t.Errorf("expected no gain")
	}
	v := float32(29.7)
	if g, ok := (Config{InitialGain: &v}).Gain(); !ok || g != types.DB(29.7) {
		t.Errorf("Gain() = %v %v", g, ok)
	}
}

func TestOptionString(t *testing.T) {
	if AutomaticGainControl.String() != "automatic_gain_control" || Loop.String() != "loop" {
		t.Errorf("unexpected option names")
	}
}

func TestLifecycle(t *testing.T) {
	var l Lifecycle
	if l.Running() {
		t.Fatal("running before Begin")
	}

	// Stop with nothing running is a no-op.
	l.Stop()

	ctx, err := l.Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !l.Running() {
		t.Fatal("not running after Begin")
	}
	if _, err := l.Begin(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Begin err = %v", err)
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		l.Stop()
		l.Stop()
	}()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("Stop did not cancel run context")
	}
	if l.Running() {
		t.Fatal("running after Stop")
	}
	l.End()

	if _, err := l.Begin(context.Background()); err != nil {
		t.Fatalf("restart after End: %v", err)
	}
	l.End()
}
