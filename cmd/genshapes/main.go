package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/vicky722/headstart/img"
	"github.com/vicky722/headstart/nnet"
)

func main() {
	dir := flag.String("dir", "data/shapes", "output directory")
	size := flag.Int("size", 224, "image size in pixels")
	count := flag.Int("n", 100, "images per class")
	seed := flag.Int64("seed", 0, "random number seed")
	flag.Parse()

	rng := nnet.SetSeed(*seed)
	for _, class := range img.ShapeNames {
		classDir := filepath.Join(*dir, class)
		nnet.CheckErr(os.MkdirAll(classDir, 0755))
		for i := 0; i < *count; i++ {
			m := img.DrawShape(*size, class, rng)
			nnet.CheckErr(writePNG(filepath.Join(classDir, fmt.Sprintf("%s_%04d.png", class, i)), m))
		}
		fmt.Printf("wrote %d %s images to %s\n", *count, class, classDir)
	}
}

func writePNG(path string, m *img.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, m)
}
