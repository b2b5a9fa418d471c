package img

import (
	"encoding/gob"
	"io"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/vicky722/headstart/stats"
)

// Data is an ordered image set which implements the nnet.Data interface.
// Class holds the class names in the fixed order used for label values:
// the same ordering applies to training, validation and inference.
type Data struct {
	DataHead
	Images []*Image
	trans  *Transformer
}

type DataHead struct {
	Class  []string
	Dims   []int
	Labels []int32
	Mean   []float32
	StdDev []float32
}

// NewData creates a new image set. All images must share the shape of the first.
func NewData(classes []string, labels []int32, images []*Image) *Data {
	src := images[0]
	return &Data{
		DataHead: DataHead{Class: classes, Dims: src.Shape(), Labels: labels},
		Images:   images,
	}
}

// Len returns the number of images.
func (d *Data) Len() int { return len(d.Labels) }

// Classes returns the ordered class names.
func (d *Data) Classes() []string { return d.Class }

// Shape returns height, width, channels per image.
func (d *Data) Shape() []int { return d.Dims }

// Label copies the class index for each listed image into label.
func (d *Data) Label(index []int, label []int32) {
	for i, ix := range index {
		label[i] = d.Labels[ix]
	}
}

// Input copies the pixel values for each listed image into buf,
// applying the augmentation transform if one is attached.
func (d *Data) Input(index []int, buf []float32) {
	nfeat := d.nfeat()
	if d.trans == nil {
		for i, ix := range index {
			copy(buf[i*nfeat:], d.Images[ix].Pix)
		}
		return
	}
	temp := d.trans.TransformBatch(d, index, nil)
	for i := range index {
		copy(buf[i*nfeat:], temp[i].Pix)
	}
}

// Image returns image number ix.
func (d *Data) Image(ix int) *Image { return d.Images[ix] }

// SetTransform attaches an augmentation transform applied on each Input call.
func (d *Data) SetTransform(t *Transformer) { d.trans = t }

// Batch returns the images from start to end, applying the augmentation
// transform if one is attached.
func (d *Data) Batch(start, end int) []*Image {
	if d.trans == nil {
		return d.Images[start:end]
	}
	index := make([]int, end-start)
	for i := range index {
		index[i] = start + i
	}
	return d.trans.TransformBatch(d, index, nil)
}

// Slice returns a view of images from start to end.
func (d *Data) Slice(start, end int) *Data {
	data := *d
	data.Labels = append([]int32{}, d.Labels[start:end]...)
	data.Images = append([]*Image{}, d.Images[start:end]...)
	return &data
}

// Split partitions the set into two disjoint subsets, with a valFrac fraction of
// the images in the second. Together the two subsets cover every image exactly once.
// If rng is non nil the assignment is shuffled first, otherwise the tail of the
// set forms the validation part.
func (d *Data) Split(valFrac float64, rng *rand.Rand) (train, valid *Data, err error) {
	if valFrac <= 0 || valFrac >= 1 {
		return nil, nil, errors.Errorf("img: validation fraction %g out of range", valFrac)
	}
	n := d.Len()
	nValid := int(float64(n) * valFrac)
	if nValid == 0 || nValid == n {
		return nil, nil, errors.Errorf("img: cannot split %d images with fraction %g", n, valFrac)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if rng != nil {
		order = rng.Perm(n)
	}
	pick := func(ix []int) *Data {
		data := *d
		data.Labels = make([]int32, len(ix))
		data.Images = make([]*Image, len(ix))
		for i, j := range ix {
			data.Labels[i] = d.Labels[j]
			data.Images[i] = d.Images[j]
		}
		return &data
	}
	return pick(order[:n-nValid]), pick(order[n-nValid:]), nil
}

func (d *Data) nfeat() int {
	n := 1
	for _, dim := range d.Dims {
		n *= dim
	}
	return n
}

// Encode writes the data set to w in gob format.
func (d *Data) Encode(w io.Writer) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(&d.DataHead); err != nil {
		return errors.Wrap(err, "img: encoding header")
	}
	for i, m := range d.Images {
		if err := enc.Encode(m); err != nil {
			return errors.Wrapf(err, "img: encoding image %d", i)
		}
	}
	return nil
}

// Decode reads a data set in gob format from r.
func (d *Data) Decode(r io.Reader) error {
	d.DataHead = DataHead{}
	dec := gob.NewDecoder(r)
	if err := dec.Decode(&d.DataHead); err != nil {
		return errors.Wrap(err, "img: decoding header")
	}
	d.Images = make([]*Image, d.Len())
	for i := range d.Images {
		if err := dec.Decode(&d.Images[i]); err != nil {
			return errors.Wrapf(err, "img: decoding image %d", i)
		}
	}
	return nil
}

// GetStats calculates the per channel mean and stddev over sets of images.
func GetStats(imgList ...[]*Image) (mean, std []float32) {
	channels := imgList[0][0].Channels
	stat := make([]*stats.Average, channels)
	for i := range stat {
		stat[i] = new(stats.Average)
	}
	for _, images := range imgList {
		for _, m := range images {
			for ch, s := range stat {
				for _, val := range m.Pixels(ch) {
					s.Add(float64(val))
				}
			}
		}
	}
	mean = make([]float32, channels)
	std = make([]float32, channels)
	for i, s := range stat {
		mean[i] = float32(s.Mean)
		std[i] = float32(s.StdDev)
	}
	return mean, std
}
