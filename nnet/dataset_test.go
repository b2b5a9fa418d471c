package nnet

import (
	"math/rand"
	"testing"
)

func testData(samples, nfeat, classes int) Data {
	labels := make([]int32, samples)
	inputs := make([]float32, samples*nfeat)
	for i := range labels {
		labels[i] = int32(i % classes)
		for j := 0; j < nfeat; j++ {
			inputs[i*nfeat+j] = float32(i)
		}
	}
	return NewData(nil, []int{nfeat}, labels, inputs)
}

func TestSteps(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	cases := []struct {
		samples, batch int
		dropLast       bool
		expect         int
	}{
		{10, 3, true, 3},
		{10, 3, false, 4},
		{10, 5, true, 2},
		{10, 5, false, 2},
		{2, 30, true, 0},
		{2, 30, false, 1},
		{10, 0, true, 1},
	}
	for _, c := range cases {
		dset := NewDataset(testData(c.samples, 2, 2), c.batch, 0, c.dropLast, rng)
		if got := dset.Steps(); got != c.expect {
			t.Errorf("steps(%d samples, batch %d, drop %v): got %d expect %d",
				c.samples, c.batch, c.dropLast, got, c.expect)
		}
	}
}

func TestNextBatch(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	dset := NewDataset(testData(7, 3, 2), 3, 0, false, rng)
	dset.NextEpoch()
	sizes := []int{3, 3, 1}
	for step, expect := range sizes {
		x, y, yOneHot := dset.NextBatch()
		rows, cols := x.Dims()
		if rows != expect || cols != 3 {
			t.Fatalf("step %d: x dims got %dx%d expect %dx3", step, rows, cols, expect)
		}
		if len(y) != expect {
			t.Fatal("step", step, "labels: got", len(y))
		}
		rows, cols = yOneHot.Dims()
		if rows != expect || cols != 2 {
			t.Fatalf("step %d: onehot dims got %dx%d", step, rows, cols)
		}
		for i, label := range y {
			sum := 0.0
			for j := 0; j < 2; j++ {
				sum += yOneHot.At(i, j)
			}
			if sum != 1 || yOneHot.At(i, int(label)) != 1 {
				t.Fatal("step", step, "row", i, "invalid one hot encoding")
			}
		}
	}
}

func TestShuffleCovers(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dset := NewDataset(testData(9, 1, 3), 3, 0, true, rng)
	dset.Shuffle()
	dset.NextEpoch()
	seen := map[float64]bool{}
	for step := 0; step < dset.Steps(); step++ {
		x, _, _ := dset.NextBatch()
		rows, _ := x.Dims()
		for i := 0; i < rows; i++ {
			seen[x.At(i, 0)] = true
		}
	}
	if len(seen) != 9 {
		t.Error("shuffled epoch covered", len(seen), "of 9 samples")
	}
}

func TestMaxSamples(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	dset := NewDataset(testData(10, 2, 2), 4, 6, true, rng)
	if dset.Samples != 6 {
		t.Error("samples: got", dset.Samples, "expect 6")
	}
	if got := dset.Steps(); got != 1 {
		t.Error("steps: got", got, "expect 1")
	}
}
