package img

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// LoadDir reads a labelled image set from dir. Each immediate subdirectory names one
// class and contains that class's images; the class ordering is the sorted directory
// names and label values index into it. Images are decoded, resampled to size x size
// and scaled to the range 0-1. An empty or missing directory is an error since there
// is nothing to train on.
func LoadDir(dir string, size int) (*Data, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "img: reading data dir %s", dir)
	}
	var classes []string
	for _, e := range entries {
		if e.IsDir() {
			classes = append(classes, e.Name())
		}
	}
	sort.Strings(classes)
	if len(classes) == 0 {
		return nil, errors.Errorf("img: no class directories under %s", dir)
	}
	var images []*Image
	var labels []int32
	for ix, class := range classes {
		files, err := os.ReadDir(filepath.Join(dir, class))
		if err != nil {
			return nil, errors.Wrapf(err, "img: reading class dir %s", class)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			m, err := LoadFile(filepath.Join(dir, class, f.Name()), size)
			if err != nil {
				return nil, err
			}
			images = append(images, m)
			labels = append(labels, int32(ix))
		}
	}
	if len(images) == 0 {
		return nil, errors.Errorf("img: no images under %s", dir)
	}
	return NewData(classes, labels, images), nil
}

// LoadFile decodes a single image file and resamples it to size x size.
func LoadFile(path string, size int) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "img: opening %s", path)
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "img: decoding %s", path)
	}
	return Scale(src, size), nil
}

// Scale resamples src to size x size and converts it to normalised color planes.
func Scale(src image.Image, size int) *Image {
	b := src.Bounds()
	if b.Dx() != size || b.Dy() != size {
		src = resize.Resize(uint(size), uint(size), src, resize.Lanczos3)
	}
	return FromImage(src, 3)
}
