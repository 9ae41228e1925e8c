package samples

// Normalize maps one unsigned 8-bit I/Q pair, as produced by RTL-SDR tuners
// and rtl_sdr dumps, to [-1, 1] via (b-128)/128.
func Normalize(i, q byte) complex64 {
	return complex((float32(i)-128)/128, (float32(q)-128)/128)
}

// NormalizeCS8 maps one signed 8-bit I/Q pair (HackRF) to [-1, 1].
func NormalizeCS8(i, q byte) complex64 {
	return complex(float32(int8(i))/128, float32(int8(q))/128)
}

// NormalizeBuffer converts interleaved u8 pairs from in into out and returns
// the number of samples written. A trailing odd byte is ignored.
func NormalizeBuffer(in []byte, out []complex64) int {
	n := len(in) / 2
	if n > len(out) {
		n = len(out)
	}
	for idx := 0; idx < n; idx++ {
		out[idx] = Normalize(in[2*idx], in[2*idx+1])
	}
	return n
}

// NormalizeBufferCS8 is NormalizeBuffer for signed 8-bit pairs.
func NormalizeBufferCS8(in []byte, out []complex64) int {
	n := len(in) / 2
	if n > len(out) {
		n = len(out)
	}
	for idx := 0; idx < n; idx++ {
		out[idx] = NormalizeCS8(in[2*idx], in[2*idx+1])
	}
	return n
}
