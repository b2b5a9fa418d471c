package img

import (
	"math/rand"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// Types of image transformations
type TransType int

const NoTrans TransType = 0

const (
	HorizFlip TransType = 1 << iota
	Pan
	Normalise
)

var transTypeNames = map[TransType]string{
	HorizFlip: "HorizFlip",
	Pan:       "Pan",
	Normalise: "Normalise",
}

func (t TransType) String() string {
	if t == NoTrans {
		return "None"
	}
	s := []string{}
	for key, name := range transTypeNames {
		if t&key != 0 {
			s = append(s, name)
		}
	}
	sort.Strings(s)
	return strings.Join(s, " ")
}

// PanPixels is the maximum offset applied by the Pan transform.
var PanPixels = 4

// Transformer applies a sequence of random augmentation transforms to images.
type Transformer struct {
	Amount float64
	Trans  TransType
	w, h   int
	rng    []*rand.Rand
}

// NewTransformer creates a transformer for images of the given size. One rng is
// seeded per worker thread so batches can be transformed in parallel.
func NewTransformer(width, height int, trans TransType, rng *rand.Rand) *Transformer {
	threads := runtime.GOMAXPROCS(0)
	t := &Transformer{Amount: 1, Trans: trans, w: width, h: height}
	for i := 0; i < threads; i++ {
		t.rng = append(t.rng, rand.New(rand.NewSource(rng.Int63())))
	}
	return t
}

// AugmentData extends the set with extra copies of each image, keeping the
// original labels, and attaches the flip and pan transforms so that every
// entry is independently jittered when its pixels are read.
func AugmentData(d *Data, copies int, rng *rand.Rand) *Data {
	data := *d
	data.Images = append([]*Image{}, d.Images...)
	data.Labels = append([]int32{}, d.Labels...)
	for c := 0; c < copies; c++ {
		data.Images = append(data.Images, d.Images...)
		data.Labels = append(data.Labels, d.Labels...)
	}
	data.SetTransform(NewTransformer(d.Dims[1], d.Dims[0], HorizFlip|Pan, rng))
	return &data
}

// TransformBatch transforms a batch of images from the set in parallel.
func (t *Transformer) TransformBatch(d *Data, index []int, dst []*Image) []*Image {
	if dst == nil {
		dst = make([]*Image, len(index))
	}
	var wg sync.WaitGroup
	queue := make(chan int, len(t.rng))
	for thread := range t.rng {
		wg.Add(1)
		go func(thread int) {
			for i := range queue {
				dst[i] = t.Transform(d, d.Images[index[i]], thread)
			}
			wg.Done()
		}(thread)
	}
	for i := range index {
		queue <- i
	}
	close(queue)
	wg.Wait()
	return dst
}

// Transform applies the configured transforms to one image.
func (t *Transformer) Transform(d *Data, m *Image, thread int) *Image {
	rng := t.rng[thread]
	if t.Trans&HorizFlip != 0 && rng.Float64() > 0.5 {
		m = transform(m, func(x, y int) (int, int) { return t.w - x - 1, y })
	}
	if t.Trans&Pan != 0 {
		off := int(float64(PanPixels)*t.Amount + 0.5)
		ox := rng.Intn(2*off+1) - off
		oy := rng.Intn(2*off+1) - off
		if ox != 0 || oy != 0 {
			m = transform(m, func(x, y int) (int, int) { return wrap(x-ox, t.w), wrap(y-oy, t.h) })
		}
	}
	if t.Trans&Normalise != 0 {
		m = t.normalise(d, m)
	}
	return m
}

func (t *Transformer) normalise(d *Data, src *Image) *Image {
	if len(d.Mean) != src.Channels || len(d.StdDev) != src.Channels {
		return src
	}
	dst := NewLike(src)
	for ch := 0; ch < src.Channels; ch++ {
		pix := dst.Pixels(ch)
		for i, val := range src.Pixels(ch) {
			pix[i] = (val - d.Mean[ch]) / d.StdDev[ch]
		}
	}
	return dst
}

func transform(src *Image, fn func(x, y int) (int, int)) *Image {
	dst := NewLike(src)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			sx, sy := fn(x, y)
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

func wrap(x, dx int) int {
	if x < 0 {
		return -x - 1
	}
	if x >= dx {
		return 2*dx - x - 1
	}
	return x
}
