package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/vicky722/headstart/nnet"
)

func main() {
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Println("usage: predict <model> <image> ...")
		os.Exit(1)
	}
	model := flag.Arg(0)
	m, err := nnet.LoadModel(model + ".model")
	nnet.CheckErr(err)
	defer m.Close()

	for _, path := range flag.Args()[1:] {
		src, err := readImage(path)
		nnet.CheckErr(err)
		class, err := m.PredictClass(src)
		nnet.CheckErr(err)
		fmt.Printf("%s: %s\n", path, class)
	}
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	return src, err
}
