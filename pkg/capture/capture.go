// Package capture writes normalized samples back out in the unsigned 8-bit
// interleaved format rtl_sdr produces and the file device replays.
package capture

import (
	"bufio"
	"io"
	"math"
	"os"
)

// Denormalize is the inverse of samples.Normalize. Values outside [-1, 1]
// are clamped.
func Denormalize(s complex64) (i, q byte) {
	return toByte(real(s)), toByte(imag(s))
}

func toByte(v float32) byte {
	b := math.Round(float64(v)*128 + 128)
	if b < 0 {
		return 0
	}
	if b > 255 {
		return 255
	}
	return byte(b)
}

type Writer struct {
	w       *bufio.Writer
	closer  io.Closer
	scratch []byte
	written int64
}

func NewWriter(w io.Writer) *Writer {
	ret := &Writer{w: bufio.NewWriterSize(w, 1<<16)}
	if c, ok := w.(io.Closer); ok {
		ret.closer = c
	}
	return ret
}

// Create truncates or creates the file at path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return NewWriter(f), nil
}

func (w *Writer) Write(s []complex64) error {
	if cap(w.scratch) < 2*len(s) {
		w.scratch = make([]byte, 2*len(s))
	}
	buf := w.scratch[:2*len(s)]
	for idx, sample := range s {
		buf[2*idx], buf[2*idx+1] = Denormalize(sample)
	}
	n, err := w.w.Write(buf)
	w.written += int64(n / 2)
	return err
}

// Samples is the number of samples written so far.
func (w *Writer) Samples() int64 {
	return w.written
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Close flushes and closes the underlying writer if it is an io.Closer.
func (w *Writer) Close() error {
	err := w.w.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
