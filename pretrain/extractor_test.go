package pretrain

import (
	"math"
	"reflect"
	"testing"

	"github.com/vicky722/headstart/img"
)

func TestNewPool(t *testing.T) {
	if _, err := NewPool([]int{32, 32, 3}, 5); err == nil {
		t.Error("no error for stride which does not divide the input")
	}
	if _, err := NewPool([]int{32, 32}, 8); err == nil {
		t.Error("no error for 2 dimensional input shape")
	}
	if _, err := NewPool([]int{32, 32, 3}, 0); err == nil {
		t.Error("no error for zero stride")
	}
	p, err := NewPool([]int{32, 32, 3}, 8)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p.OutShape(), []int{4, 4, 3}) {
		t.Error("out shape: got", p.OutShape())
	}
}

func TestPoolExtract(t *testing.T) {
	p, err := NewPool([]int{4, 4, 1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	m := img.NewGray(4, 4)
	// top left 2x2 block holds 0,1,2,3 so its average is 1.5
	m.Pixels(0)[0+0*4] = 0
	m.Pixels(0)[0+1*4] = 1
	m.Pixels(0)[1+0*4] = 2
	m.Pixels(0)[1+1*4] = 3
	feats, err := p.Extract([]*img.Image{m})
	if err != nil {
		t.Fatal(err)
	}
	rows, cols := feats.Dims()
	if rows != 1 || cols != 4 {
		t.Fatalf("dims: got %dx%d expect 1x4", rows, cols)
	}
	if got := feats.At(0, 0); math.Abs(got-1.5) > 1e-6 {
		t.Error("pooled value: got", got, "expect 1.5")
	}
	for i := 1; i < 4; i++ {
		if got := feats.At(0, i); got != 0 {
			t.Error("cell", i, "got", got, "expect 0")
		}
	}
}

func TestPoolExtractShapeMismatch(t *testing.T) {
	p, err := NewPool([]int{8, 8, 3}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = p.Extract([]*img.Image{img.NewRGB(4, 4)}); err == nil {
		t.Error("no error for image shape mismatch")
	}
}
