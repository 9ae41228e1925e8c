package viz

import (
	"bytes"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

type PlotOptions func(p *plot.Plot)

type ImageContainer struct {
	name string
	data []byte
}

func (i *ImageContainer) Name() string { return i.name }

// PNG returns the encoded image.
func (i *ImageContainer) PNG() []byte { return i.data }

func plotWithDefaults() *plot.Plot {
	p := plot.New()
	p.BackgroundColor = color.Black
	p.Title.TextStyle.Color = color.White
	p.Y.Label.TextStyle.Color = color.White
	p.Y.Color = color.White
	p.X.Label.TextStyle.Color = color.White
	p.X.Color = color.White
	p.Legend.TextStyle.Color = color.White
	p.X.Tick.Color = color.White
	p.Y.Tick.Color = color.White
	p.X.Tick.Label.Color = color.White
	p.Y.Tick.Label.Color = color.White

	return p
}

func render(name string, p *plot.Plot) (*ImageContainer, error) {
	var imageData bytes.Buffer
	w, err := p.WriterTo(8*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return nil, err
	}
	if _, err := w.WriteTo(&imageData); err != nil {
		return nil, err
	}
	return &ImageContainer{name: name, data: imageData.Bytes()}, nil
}
