// Package pretrain loads pre-trained feature extractors used as the frozen base
// of a transfer learning model. Extractors are read only: their parameters are
// fixed at load time and never change during head training.
package pretrain

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/vicky722/headstart/img"
)

// Extractor computes fixed feature representations from images. Implementations
// hold no trainable state.
type Extractor interface {
	// OutShape returns the per sample feature shape.
	OutShape() []int
	// Extract returns one feature row per input image.
	Extract(images []*img.Image) (*mat.Dense, error)
	Close() error
}

// Pool is a baseline extractor which average pools each color plane by a fixed
// stride. It has no learned weights so it is always available, and stands in
// for a pretrained convolutional base when no .onnx weights are supplied.
type Pool struct {
	Stride  int
	inShape []int
}

// NewPool creates a pooling extractor for images of shape [height, width, channels].
func NewPool(inShape []int, stride int) (*Pool, error) {
	if len(inShape) != 3 {
		return nil, errors.Errorf("pretrain: expect 3 dimensional input shape, have %v", inShape)
	}
	if stride < 1 || inShape[0]%stride != 0 || inShape[1]%stride != 0 {
		return nil, errors.Errorf("pretrain: stride %d does not divide %dx%d input", stride, inShape[0], inShape[1])
	}
	return &Pool{Stride: stride, inShape: inShape}, nil
}

func (p *Pool) OutShape() []int {
	return []int{p.inShape[0] / p.Stride, p.inShape[1] / p.Stride, p.inShape[2]}
}

func (p *Pool) Extract(images []*img.Image) (*mat.Dense, error) {
	out := p.OutShape()
	oh, ow, channels := out[0], out[1], out[2]
	nfeat := oh * ow * channels
	dst := mat.NewDense(len(images), nfeat, nil)
	norm := float64(p.Stride * p.Stride)
	for i, m := range images {
		if m.Height != p.inShape[0] || m.Width != p.inShape[1] || m.Channels != p.inShape[2] {
			return nil, errors.Errorf("pretrain: image %d shape %v does not match %v", i, m.Shape(), p.inShape)
		}
		row := dst.RawRowView(i)
		for ch := 0; ch < channels; ch++ {
			pix := m.Pixels(ch)
			for oy := 0; oy < oh; oy++ {
				for ox := 0; ox < ow; ox++ {
					sum := 0.0
					for y := oy * p.Stride; y < (oy+1)*p.Stride; y++ {
						for x := ox * p.Stride; x < (ox+1)*p.Stride; x++ {
							sum += float64(pix[y+x*m.Height])
						}
					}
					row[ch*oh*ow+oy*ow+ox] = sum / norm
				}
			}
		}
	}
	return dst, nil
}

func (p *Pool) Close() error { return nil }
