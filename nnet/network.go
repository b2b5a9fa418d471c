// Package nnet contains routines for constructing, training and testing the
// trainable classification head of a transfer learning model.
package nnet

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Network type represents the trainable head: a stack of layers applied to the
// features produced by the frozen base model.
type Network struct {
	Config
	Layers  []Layer
	inShape []int
}

// New function creates a new network with layers from the config.
func New(conf Config, inShape []int) *Network {
	n := &Network{Config: conf, inShape: inShape}
	shape := inShape
	for _, l := range conf.Layers {
		layer := l.Unmarshal()
		layer.Init(shape)
		n.Layers = append(n.Layers, layer)
		shape = layer.OutShape(shape)
	}
	return n
}

// InitWeights initialises the network weights using a linear or normal
// distribution scaled by 1/sqrt(nin) per layer.
func (n *Network) InitWeights(rng *rand.Rand) {
	shape := n.inShape
	for _, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			scale := 1 / math.Sqrt(float64(Prod(shape)))
			l.InitParams(scale, n.Bias, n.NormalWeights, rng)
		}
		shape = layer.OutShape(shape)
	}
}

// CopyTo copies weights and biases to the destination net.
func (n *Network) CopyTo(net *Network) {
	for i, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			W, B := l.Params()
			net.Layers[i].(ParamLayer).SetParams(W, B)
		}
	}
}

// OutLayer is an accessor for the output layer.
func (n *Network) OutLayer() OutputLayer {
	return n.Layers[len(n.Layers)-1].(OutputLayer)
}

// ParamCount returns the total number of trainable parameters.
func (n *Network) ParamCount() int {
	count := 0
	for _, layer := range n.Layers {
		if l, ok := layer.(ParamLayer); ok {
			count += l.ParamCount()
		}
	}
	return count
}

// Fprop feeds the input forward and returns the predicted output.
func (n *Network) Fprop(input *mat.Dense) *mat.Dense {
	pred := input
	for i, layer := range n.Layers {
		if n.DebugLevel >= 2 && pred != nil {
			fmt.Printf("layer %d input\n%v\n", i, mat.Formatted(pred))
		}
		pred = layer.Fprop(pred)
	}
	return pred
}

// Predict returns the predicted class index per sample and the output probabilities.
func (n *Network) Predict(input *mat.Dense) ([]int32, *mat.Dense) {
	yPred := n.Fprop(input)
	nBatch, _ := yPred.Dims()
	classes := make([]int32, nBatch)
	for i := range classes {
		classes[i] = int32(argmax(yPred.RawRowView(i)))
	}
	return classes, yPred
}

// Error evaluates the average loss and classification error over the dataset
// without updating any weights. If pred is not nil the predicted class for
// each sample is also recorded.
func (n *Network) Error(dset *Dataset, pred []int32) (loss, errRate float64) {
	dset.NextEpoch()
	samples := 0
	errs := 0
	for batch := 0; batch < dset.Steps(); batch++ {
		x, y, yOneHot := dset.NextBatch()
		classes, yPred := n.Predict(x)
		loss += n.OutLayer().Loss(yOneHot, yPred)
		for i, c := range classes {
			if c != y[i] {
				errs++
			}
		}
		if pred != nil {
			copy(pred[samples:], classes)
		}
		samples += len(y)
	}
	if samples == 0 {
		return 0, 0
	}
	return loss / float64(samples), float64(errs) / float64(samples)
}

// String returns the network description.
func (n *Network) String() string {
	s := make([]string, len(n.Layers))
	shape := n.inShape
	for i, layer := range n.Layers {
		s[i] = fmt.Sprintf("%2d: %-25s %v", i, layer.ToString(), shape)
		shape = layer.OutShape(shape)
	}
	return fmt.Sprintf("%s\n== Head ==\n%s", n.Config, strings.Join(s, "\n"))
}

func argmax(row []float64) int {
	ix := 0
	max := row[0]
	for j, v := range row[1:] {
		if v > max {
			max = v
			ix = j + 1
		}
	}
	return ix
}

// SetSeed returns a new random source, seeded from the clock if seed <= 0.
func SetSeed(seed int64) *rand.Rand {
	if seed <= 0 {
		seed = time.Now().UTC().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// CheckErr exits in case of error.
func CheckErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
