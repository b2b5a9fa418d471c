package nnet

import (
	"encoding/gob"
	"math/rand"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

func init() {
	gob.Register(memData{})
}

// Data interface type represents the raw samples for a training or validation set.
type Data interface {
	Len() int
	Classes() []string
	Shape() []int
	Label(index []int, label []int32)
	Input(index []int, buf []float32)
}

// Dataset type wraps a Data set with batching and shuffling for training.
// When DropLast is set any remainder samples which do not fill a whole batch
// are silently skipped each epoch, so Steps() can be zero if the batch size
// exceeds the sample count.
type Dataset struct {
	Data
	Samples   int
	BatchSize int
	DropLast  bool
	xBuffer   []float32
	yBuffer   []int32
	indexes   []int
	batch     int
	rng       *rand.Rand
}

// NewDataset creates a new Dataset and sets the batch size and maxSamples.
// A batchSize of zero means the whole set forms a single batch.
func NewDataset(data Data, batchSize, maxSamples int, dropLast bool, rng *rand.Rand) *Dataset {
	d := &Dataset{Data: data, Samples: data.Len(), DropLast: dropLast, rng: rng}
	if maxSamples > 0 && d.Samples > maxSamples {
		d.Samples = maxSamples
	}
	if batchSize <= 0 {
		d.BatchSize = d.Samples
	} else {
		d.BatchSize = batchSize
	}
	nfeat := Prod(data.Shape())
	d.xBuffer = make([]float32, nfeat*d.BatchSize)
	d.yBuffer = make([]int32, d.BatchSize)
	d.indexes = make([]int, d.Samples)
	for i := range d.indexes {
		d.indexes[i] = i
	}
	return d
}

// Steps returns the number of batches per epoch.
func (d *Dataset) Steps() int {
	if d.DropLast {
		return d.Samples / d.BatchSize
	}
	return (d.Samples + d.BatchSize - 1) / d.BatchSize
}

// NumClasses returns the number of output classes.
func (d *Dataset) NumClasses() int {
	return len(d.Classes())
}

// Shuffle randomises the sample order for the next epoch.
func (d *Dataset) Shuffle() {
	d.indexes = d.rng.Perm(d.Samples)
}

// NextEpoch rewinds to the start of the data.
func (d *Dataset) NextEpoch() {
	d.batch = 0
}

// NextBatch returns the next batch of input values, labels and one hot encoded
// labels. Labels are only valid until the following call.
func (d *Dataset) NextBatch() (x *mat.Dense, y []int32, yOneHot *mat.Dense) {
	start := d.batch * d.BatchSize
	end := start + d.BatchSize
	if end > d.Samples {
		end = d.Samples
	}
	index := d.indexes[start:end]
	d.Input(index, d.xBuffer)
	d.Label(index, d.yBuffer)
	nBatch := len(index)
	nfeat := Prod(d.Shape())
	x = mat.NewDense(nBatch, nfeat, nil)
	xData := x.RawMatrix().Data
	for i, v := range d.xBuffer[:nBatch*nfeat] {
		xData[i] = float64(v)
	}
	y = d.yBuffer[:nBatch]
	nClass := d.NumClasses()
	yOneHot = mat.NewDense(nBatch, nClass, nil)
	for i, label := range y {
		yOneHot.Set(i, int(label), 1)
	}
	d.batch++
	if d.batch >= d.Steps() {
		d.batch = 0
	}
	return x, y, yOneHot
}

// memData is a generic in memory data set which implements the Data interface.
// It is used for feature sets produced by the frozen base model.
type memData struct {
	Class  []string
	Dims   []int
	Labels []int32
	Inputs []float32
}

// NewData creates a new in memory data set. If classes is nil the class names
// are the label values.
func NewData(classes []string, shape []int, labels []int32, inputs []float32) Data {
	if classes == nil {
		max := int32(0)
		for _, l := range labels {
			if l > max {
				max = l
			}
		}
		classes = make([]string, max+1)
		for i := range classes {
			classes[i] = strconv.Itoa(i)
		}
	}
	return memData{Class: classes, Dims: shape, Labels: labels, Inputs: inputs}
}

func (d memData) Len() int { return len(d.Labels) }

func (d memData) Classes() []string { return d.Class }

func (d memData) Shape() []int { return d.Dims }

func (d memData) Label(index []int, label []int32) {
	for i, ix := range index {
		label[i] = d.Labels[ix]
	}
}

func (d memData) Input(index []int, buf []float32) {
	nfeat := Prod(d.Dims)
	for i, ix := range index {
		copy(buf[i*nfeat:], d.Inputs[ix*nfeat:(ix+1)*nfeat])
	}
}
