package stats

import (
	"math"
	"strings"
	"testing"
)

func TestConfusionMatrix(t *testing.T) {
	cm := NewConfusionMatrix(3)
	actual := []int32{0, 0, 1, 1, 2, 2, 2}
	predicted := []int32{0, 1, 1, 1, 2, 2, 0}
	if err := cm.Update(actual, predicted); err != nil {
		t.Fatal(err)
	}
	if cm.Total != 7 {
		t.Error("total: got", cm.Total)
	}
	// every sample is counted exactly once
	sum := 0
	for _, row := range cm.Matrix {
		for _, n := range row {
			sum += n
		}
	}
	if sum != cm.Total {
		t.Error("matrix sum", sum, "!= total", cm.Total)
	}
	if got := cm.Matrix[0][1]; got != 1 {
		t.Error("matrix[0][1]: got", got, "expect 1")
	}
	if acc := cm.Accuracy(); math.Abs(acc-5.0/7) > 1e-12 {
		t.Error("accuracy: got", acc)
	}
	// class 1: 2 correct of 3 predicted, 2 actual
	if p := cm.Precision(1); math.Abs(p-2.0/3) > 1e-12 {
		t.Error("precision: got", p)
	}
	if r := cm.Recall(1); r != 1 {
		t.Error("recall: got", r)
	}
	if r := cm.Recall(2); math.Abs(r-2.0/3) > 1e-12 {
		t.Error("recall: got", r)
	}
}

func TestConfusionRange(t *testing.T) {
	cm := NewConfusionMatrix(2)
	if err := cm.Add(2, 0); err == nil {
		t.Error("no error for actual class out of range")
	}
	if err := cm.Add(0, -1); err == nil {
		t.Error("no error for predicted class out of range")
	}
	if cm.Total != 0 {
		t.Error("total updated on error: got", cm.Total)
	}
}

func TestConfusionString(t *testing.T) {
	cm := NewConfusionMatrix(2)
	cm.Add(0, 0)
	cm.Add(1, 0)
	s := cm.String()
	if !strings.Contains(s, "1") {
		t.Error("missing counts in:", s)
	}
}

func TestEMA(t *testing.T) {
	if got := EMA(0).Add(5, 5); got != 5 {
		t.Error("unset average: got", got, "expect 5")
	}
	// k = 2/(n+1) = 0.4
	if got := EMA(5).Add(8, 4); math.Abs(got-6.2) > 1e-12 {
		t.Error("smoothed value: got", got, "expect 6.2")
	}
}

func TestAverage(t *testing.T) {
	s := new(Average)
	for _, x := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Add(x)
	}
	if s.Mean != 5 {
		t.Error("mean: got", s.Mean)
	}
	if math.Abs(s.StdDev-math.Sqrt(32.0/7)) > 1e-12 {
		t.Error("stddev: got", s.StdDev)
	}
	if s.Count != 8 {
		t.Error("count: got", s.Count)
	}
}
