package viz

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/Opendigitalradio/libdabdevice/pkg/types"
	"github.com/mjibson/go-dsp/window"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
)

const (
	DefaultBins = 1024

	// powerAvg is the weight of the newest frame in the running spectrum.
	powerAvg = 0.10
	// floorDB keeps silent bins plottable.
	floorDB = -120
)

// SpectrumPlotter keeps the newest bins samples of the stream and plots their
// averaged power spectrum around the tuned frequency.
type SpectrumPlotter struct {
	mu sync.Mutex

	name         string
	bins         int
	sampleRate   int
	center       types.Frequency
	buf          []complex64
	averagePower []float64
	win          []float64
	fft          *fourier.CmplxFFT
	plotOptions  []PlotOptions
}

func NewSpectrumPlotter(name string, bins, sampleRate int, center types.Frequency) *SpectrumPlotter {
	if bins <= 0 {
		bins = DefaultBins
	}
	win := window.Blackman(bins)
	var sum float64
	for _, w := range win {
		sum += w
	}
	// Normalize so a full scale tone lands at 0 dB.
	for i := range win {
		win[i] /= sum
	}

	return &SpectrumPlotter{
		name:         name,
		bins:         bins,
		sampleRate:   sampleRate,
		center:       center,
		buf:          make([]complex64, bins),
		averagePower: make([]float64, bins),
		win:          win,
		fft:          fourier.NewCmplxFFT(bins),
	}
}

func (p *SpectrumPlotter) Name() string {
	return p.name
}

func (p *SpectrumPlotter) SetCenter(center types.Frequency) {
	p.mu.Lock()
	p.center = center
	p.mu.Unlock()
}

// Write keeps the newest samples. It never fails.
func (p *SpectrumPlotter) Write(s []complex64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(s) >= p.bins {
		copy(p.buf, s[len(s)-p.bins:])
	} else {
		copy(p.buf, p.buf[len(s):])
		copy(p.buf[p.bins-len(s):], s)
	}
	return nil
}

func (p *SpectrumPlotter) AddPlotOption(opt PlotOptions) {
	p.mu.Lock()
	p.plotOptions = append(p.plotOptions, opt)
	p.mu.Unlock()
}

// Spectrum folds the current buffer into the running average and returns
// it ordered from the lowest to the highest frequency, with frequencies in
// MHz and power in dB.
func (p *SpectrumPlotter) Spectrum() (freqs, power []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.spectrumLocked()
}

func (p *SpectrumPlotter) spectrumLocked() (freqs, power []float64) {
	data := make([]complex128, p.bins)
	for i := 0; i < p.bins; i++ {
		data[i] = complex128(p.buf[i]) * complex(p.win[i], 0)
	}
	coeffs := p.fft.Coefficients(nil, data)

	centerMHz := float64(p.center.Hertz()) / 1e6
	freqs = make([]float64, p.bins)
	power = make([]float64, p.bins)
	for i := 0; i < p.bins; i++ {
		shiftIdx := p.fft.ShiftIdx(i)
		mag := cmplx.Abs(coeffs[shiftIdx])
		p.averagePower[i] = (1.0-powerAvg)*p.averagePower[i] + powerAvg*mag

		freqs[i] = centerMHz + p.fft.Freq(shiftIdx)*float64(p.sampleRate)/1e6
		power[i] = math.Max(20*math.Log10(p.averagePower[i]), floorDB)
	}
	return freqs, power
}

func (p *SpectrumPlotter) GetImage() *ImageContainer {
	p.mu.Lock()
	defer p.mu.Unlock()

	freqs, power := p.spectrumLocked()

	pl := plotWithDefaults()
	pl.Title.Text = fmt.Sprintf("%s @ %s", p.name, p.center)
	pl.Y.Label.Text = "Power (dB)"
	pl.X.Label.Text = "Frequency (MHz)"
	pl.Y.Max = 0
	pl.Y.Min = floorDB

	if peaks := FindPeaks(power, 1); len(peaks) > 0 {
		pl.Title.Text += fmt.Sprintf(", peak %.3f MHz", freqs[peaks[0]])
	}

	for _, opt := range p.plotOptions {
		opt(pl)
	}

	pl.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(freqs))
	for i := range freqs {
		xys[i] = plotter.XY{X: freqs[i], Y: power[i]}
	}
	if err := plotutil.AddLines(pl, "power", xys); err != nil {
		log.Warn().Err(err).Str("plot", p.name).Msg("error adding lines")
		return nil
	}

	img, err := render(p.name, pl)
	if err != nil {
		log.Warn().Err(err).Str("plot", p.name).Msg("error rendering plot")
		return nil
	}
	return img
}
