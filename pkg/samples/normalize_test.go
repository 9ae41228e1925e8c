package samples

import "testing"

func TestNormalizeRange(t *testing.T) {
	for b := 0; b <= 255; b++ {
		s := Normalize(byte(b), byte(255-b))
		if real(s) < -1 || real(s) > 1 || imag(s) < -1 || imag(s) > 1 {
			t.Fatalf("Normalize(%d, %d) = %v out of range", b, 255-b, s)
		}
		s = NormalizeCS8(byte(b), byte(255-b))
		if real(s) < -1 || real(s) > 1 || imag(s) < -1 || imag(s) > 1 {
			t.Fatalf("NormalizeCS8(%d, %d) = %v out of range", b, 255-b, s)
		}
	}
}

func TestNormalizeBoundaries(t *testing.T) {
	tests := []struct {
		name string
		i, q byte
		want complex64
	}{
		{"zero", 0, 0, complex(-1, -1)},
		{"center", 128, 128, 0},
		{"max", 255, 255, complex(127.0/128, 127.0/128)},
		{"mixed", 64, 192, complex(-0.5, 0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.i, tt.q); got != tt.want {
				t.Errorf("Normalize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeCS8(t *testing.T) {
	if got := NormalizeCS8(0x80, 0x7f); got != complex(-1, 127.0/128) {
		t.Errorf("NormalizeCS8() = %v", got)
	}
}

func TestNormalizeBufferIgnoresOddByte(t *testing.T) {
	out := make([]complex64, 8)
	n := NormalizeBuffer([]byte{0, 32, 64, 96, 128}, out)
	if n != 2 {
		t.Fatalf("got %d samples, want 2", n)
	}
	if out[1] != complex(-0.5, -0.25) {
		t.Errorf("out[1] = %v", out[1])
	}
}

func TestNormalizeBufferShortOutput(t *testing.T) {
	out := make([]complex64, 1)
	if n := NormalizeBuffer([]byte{1, 2, 3, 4}, out); n != 1 {
		t.Errorf("got %d samples, want 1", n)
	}
}
