package viz

import (
	"sync"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
)

// ConstellationPlotter scatters the newest samples on the I/Q plane, which
// shows clipping and DC offset at a glance.
type ConstellationPlotter struct {
	mu          sync.Mutex
	buf         []complex64
	size        int
	name        string
	plotOptions []PlotOptions
}

func NewConstellationPlotter(name string, size int) *ConstellationPlotter {
	return &ConstellationPlotter{
		buf:  make([]complex64, 0, size),
		size: size,
		name: name,
	}
}

func (c *ConstellationPlotter) Name() string {
	return c.name
}

func (c *ConstellationPlotter) Write(s []complex64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf = append(c.buf, s...)
	if len(c.buf) > c.size {
		c.buf = append(c.buf[:0], c.buf[len(c.buf)-c.size:]...)
	}
	return nil
}

func (c *ConstellationPlotter) AddPlotOption(opt PlotOptions) {
	c.mu.Lock()
	c.plotOptions = append(c.plotOptions, opt)
	c.mu.Unlock()
}

// GetImage returns nil until size samples were written.
func (c *ConstellationPlotter) GetImage() *ImageContainer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.buf) < c.size {
		return nil
	}

	p := plotWithDefaults()
	p.Title.Text = c.name
	p.X.Label.Text = "I"
	p.Y.Label.Text = "Q"
	p.X.Min, p.X.Max = -1, 1
	p.Y.Min, p.Y.Max = -1, 1

	for _, opt := range c.plotOptions {
		opt(p)
	}

	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(c.buf))
	for i, s := range c.buf {
		xys[i] = plotter.XY{X: float64(real(s)), Y: float64(imag(s))}
	}
	if err := plotutil.AddScatters(p, "iq", xys); err != nil {
		log.Warn().Err(err).Str("plot", c.name).Msg("error adding scatter")
		return nil
	}

	img, err := render(c.name, p)
	if err != nil {
		log.Warn().Err(err).Str("plot", c.name).Msg("error rendering plot")
		return nil
	}
	return img
}
