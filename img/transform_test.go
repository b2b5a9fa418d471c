package img

import (
	"math"
	"math/rand"
	"testing"
)

func TestHorizFlip(t *testing.T) {
	m := NewGray(4, 1)
	for x := 0; x < 4; x++ {
		m.Pixels(0)[x] = float32(x) / 4
	}
	flipped := transform(m, func(x, y int) (int, int) { return 4 - x - 1, y })
	for x := 0; x < 4; x++ {
		got := flipped.Pixels(0)[x]
		expect := float32(3-x) / 4
		if math.Abs(float64(got-expect)) > 1e-3 {
			t.Error("pixel", x, "got", got, "expect", expect)
		}
	}
}

func TestNormalise(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	data := GenerateShapes(16, 2, rng)
	data.Mean, data.StdDev = GetStats(data.Images)
	trans := NewTransformer(16, 16, Normalise, rng)
	m := trans.Transform(data, data.Images[0], 0)
	for ch := 0; ch < 3; ch++ {
		for i, val := range m.Pixels(ch) {
			expect := (data.Images[0].Pixels(ch)[i] - data.Mean[ch]) / data.StdDev[ch]
			if math.Abs(float64(val-expect)) > 1e-6 {
				t.Fatal("channel", ch, "pixel", i, "got", val, "expect", expect)
			}
		}
	}
}

func TestAugmentData(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	data := GenerateShapes(16, 4, rng)
	aug := AugmentData(data, 2, rng)
	if aug.Len() != 3*data.Len() {
		t.Error("augmented size: got", aug.Len(), "expect", 3*data.Len())
	}
	for i := 0; i < aug.Len(); i++ {
		if aug.Labels[i] != data.Labels[i%data.Len()] {
			t.Fatal("label mismatch at", i)
		}
	}
	if data.Len() != 12 {
		t.Error("original modified: got", data.Len())
	}
	if aug.trans == nil {
		t.Error("no transform attached to augmented set")
	}
	if data.trans != nil {
		t.Error("transform attached to original set")
	}
}

func TestInputTransform(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	data := GenerateShapes(16, 2, rng)
	data.Mean, data.StdDev = GetStats(data.Images)
	data.SetTransform(NewTransformer(16, 16, Normalise, rng))
	buf := make([]float32, 16*16*3)
	data.Input([]int{1}, buf)
	for ch := 0; ch < 3; ch++ {
		src := data.Images[1].Pixels(ch)
		for i, val := range src {
			expect := (val - data.Mean[ch]) / data.StdDev[ch]
			got := buf[ch*16*16+i]
			if math.Abs(float64(got-expect)) > 1e-6 {
				t.Fatal("channel", ch, "pixel", i, "got", got, "expect", expect)
			}
		}
	}
}

func TestBatchTransform(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	data := GenerateShapes(16, 2, rng)
	if m := data.Batch(2, 4); &m[0].Pix[0] != &data.Images[2].Pix[0] {
		t.Error("expect original images when no transform attached")
	}
	data.Mean, data.StdDev = GetStats(data.Images)
	data.SetTransform(NewTransformer(16, 16, Normalise, rng))
	batch := data.Batch(2, 4)
	for i, m := range batch {
		for ch := 0; ch < 3; ch++ {
			src := data.Images[2+i].Pixels(ch)
			for j, val := range src {
				expect := (val - data.Mean[ch]) / data.StdDev[ch]
				if math.Abs(float64(m.Pixels(ch)[j]-expect)) > 1e-6 {
					t.Fatal("image", i, "channel", ch, "pixel", j, "differs")
				}
			}
		}
	}
}

func TestWrap(t *testing.T) {
	cases := []struct{ x, dx, expect int }{
		{0, 8, 0}, {7, 8, 7}, {-1, 8, 0}, {-2, 8, 1}, {8, 8, 7}, {9, 8, 6},
	}
	for _, c := range cases {
		if got := wrap(c.x, c.dx); got != c.expect {
			t.Error("wrap", c.x, c.dx, "got", got, "expect", c.expect)
		}
	}
}
