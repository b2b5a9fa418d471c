package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vicky722/headstart/img"
	"github.com/vicky722/headstart/nnet"
	"github.com/vicky722/headstart/report"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: train [opts] <model>")
		os.Exit(1)
	}
	model := os.Args[len(os.Args)-1]
	fmt.Println("load model:", model)
	conf, err := nnet.LoadConfig(model + ".net")
	nnet.CheckErr(err)

	// override config settings from command line
	flag.StringVar(&conf.DataDir, "data", conf.DataDir, "image data directory")
	flag.StringVar(&conf.BaseModel, "base", conf.BaseModel, "base model onnx file or pool")
	flag.Float64Var(&conf.Eta, "eta", conf.Eta, "learning rate")
	flag.Float64Var(&conf.Lambda, "lambda", conf.Lambda, "weight decay parameter")
	flag.Int64Var(&conf.RandSeed, "seed", conf.RandSeed, "random number seed")
	flag.IntVar(&conf.MaxEpoch, "epochs", conf.MaxEpoch, "max epochs")
	flag.IntVar(&conf.MaxSamples, "samples", conf.MaxSamples, "max samples")
	flag.IntVar(&conf.TrainBatch, "batch", conf.TrainBatch, "train batch size")
	flag.IntVar(&conf.TestBatch, "testbatch", conf.TestBatch, "test batch size")
	flag.IntVar(&conf.DebugLevel, "debug", conf.DebugLevel, "debug logging level")
	plots := flag.Bool("plots", false, "write loss and confusion plots as svg")
	flag.Parse()

	rng := nnet.SetSeed(conf.RandSeed)

	// load images and split off the validation set
	data, err := img.LoadDir(conf.DataDir, conf.ImageSize)
	nnet.CheckErr(err)
	train, valid, err := data.Split(conf.ValidFrac, rng)
	nnet.CheckErr(err)
	fmt.Printf("loaded %d train + %d valid images in %d classes\n",
		train.Len(), valid.Len(), len(data.Classes()))
	if conf.Augment {
		train = img.AugmentData(train, 1, rng)
		fmt.Printf("augmented training set to %d images\n", train.Len())
	}

	// compose the model and run the images through the frozen base once
	base, err := nnet.OpenBase(conf)
	nnet.CheckErr(err)
	m := nnet.Compose(base, data.Classes(), conf)
	defer m.Close()
	trainFeat, err := m.Featurize(train)
	nnet.CheckErr(err)
	validFeat, err := m.Featurize(valid)
	nnet.CheckErr(err)
	trainSet := nnet.NewDataset(trainFeat, conf.TrainBatch, conf.MaxSamples, conf.DropLast, rng)
	validSet := nnet.NewDataset(validFeat, conf.TestBatch, conf.MaxSamples, false, rng)

	// train the head
	net := m.Head
	fmt.Println(net)
	net.InitWeights(rng)
	test := nnet.NewTestLogger(validSet)
	nnet.Train(net, trainSet, test)

	// confusion matrix over the validation set
	cm, err := nnet.Evaluate(net, validSet, conf.EvalBatches)
	nnet.CheckErr(err)
	fmt.Println("confusion matrix:")
	fmt.Println(cm)
	fmt.Printf("accuracy: %.1f%%\n", 100*cm.Accuracy())

	if *plots {
		svg, err := report.LossPlot(test.Stats, 560, 400)
		nnet.CheckErr(err)
		nnet.CheckErr(os.WriteFile(model+"_loss.svg", svg, 0644))
		svg, err = report.ConfusionPlot(cm, data.Classes(), 480, 480)
		nnet.CheckErr(err)
		nnet.CheckErr(os.WriteFile(model+"_confusion.svg", svg, 0644))
		fmt.Printf("wrote %s_loss.svg and %s_confusion.svg\n", model, model)
	}

	fmt.Println("save model:", model+".model")
	nnet.CheckErr(nnet.SaveModel(model+".model", m))
}
