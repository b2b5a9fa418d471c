package img

import (
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := GenerateShapes(32, 10, rng)
	train, valid, err := data.Split(0.3, rng)
	if err != nil {
		t.Fatal(err)
	}
	if n := valid.Len(); n != 9 {
		t.Error("valid size: got", n, "expect 9")
	}
	if n := train.Len(); n != 21 {
		t.Error("train size: got", n, "expect 21")
	}
	// every image lands in exactly one subset
	seen := map[*Image]int{}
	for _, m := range train.Images {
		seen[m]++
	}
	for _, m := range valid.Images {
		seen[m]++
	}
	if len(seen) != data.Len() {
		t.Error("images covered: got", len(seen), "expect", data.Len())
	}
	for _, n := range seen {
		if n != 1 {
			t.Error("image assigned", n, "times")
		}
	}
	if !reflect.DeepEqual(train.Classes(), data.Classes()) {
		t.Error("train classes: got", train.Classes())
	}
}

func TestSplitErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := GenerateShapes(32, 2, rng)
	for _, frac := range []float64{0, 1, -0.5, 1.5} {
		if _, _, err := data.Split(frac, rng); err == nil {
			t.Error("no error for fraction", frac)
		}
	}
	one := data.Slice(0, 1)
	if _, _, err := one.Split(0.3, rng); err == nil {
		t.Error("no error splitting single image")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(1))
	// class dirs created out of order to check sorting
	for _, class := range []string{"square", "circle", "triangle"} {
		if err := os.MkdirAll(filepath.Join(dir, class), 0755); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 2; i++ {
			m := DrawShape(32, class, rng)
			f, err := os.Create(filepath.Join(dir, class, "img"+string(rune('0'+i))+".png"))
			if err != nil {
				t.Fatal(err)
			}
			if err = png.Encode(f, m); err != nil {
				t.Fatal(err)
			}
			f.Close()
		}
	}
	data, err := LoadDir(dir, 16)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(data.Classes(), []string{"circle", "square", "triangle"}) {
		t.Error("classes: got", data.Classes())
	}
	if data.Len() != 6 {
		t.Error("samples: got", data.Len(), "expect 6")
	}
	if !reflect.DeepEqual(data.Shape(), []int{16, 16, 3}) {
		t.Error("shape: got", data.Shape())
	}
	for i, label := range data.Labels {
		if label != int32(i/2) {
			t.Error("label", i, "got", label, "expect", i/2)
		}
	}
}

func TestLoadDirEmpty(t *testing.T) {
	if _, err := LoadDir(t.TempDir(), 16); err == nil {
		t.Error("no error for empty data dir")
	}
	if _, err := LoadDir("/no/such/dir", 16); err == nil {
		t.Error("no error for missing data dir")
	}
}

func TestEncodeDecode(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := GenerateShapes(16, 2, rng)
	file := filepath.Join(t.TempDir(), "shapes.dat")
	f, err := os.Create(file)
	if err != nil {
		t.Fatal(err)
	}
	if err = data.Encode(f); err != nil {
		t.Fatal(err)
	}
	f.Close()
	f, err = os.Open(file)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	data2 := &Data{}
	if err = data2.Decode(f); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(data2.Classes(), data.Classes()) {
		t.Error("classes: got", data2.Classes())
	}
	if !reflect.DeepEqual(data2.Labels, data.Labels) {
		t.Error("labels differ after decode")
	}
	if !reflect.DeepEqual(data2.Images[0].Pix, data.Images[0].Pix) {
		t.Error("pixels differ after decode")
	}
}
