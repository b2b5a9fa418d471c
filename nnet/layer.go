package nnet

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

const lossEpsilon = 1e-10

// Layer interface type represents one layer of the classification head.
// Batches are dense matrices with one row per sample.
type Layer interface {
	Init(inShape []int)
	OutShape(inShape []int) []int
	Fprop(in *mat.Dense) *mat.Dense
	Bprop(grad *mat.Dense) *mat.Dense
	ToString() string
}

// ParamLayer is a layer with weight and bias parameters.
type ParamLayer interface {
	Layer
	InitParams(scale, bias float64, normal bool, rng *rand.Rand)
	Params() (W *mat.Dense, B []float64)
	SetParams(W *mat.Dense, B []float64)
	ParamCount() int
	UpdateParams(learningRate, weightDecay float64)
}

// OutputLayer is the final layer in the stack.
type OutputLayer interface {
	Layer
	// Loss returns the total loss summed over the batch.
	Loss(yOneHot, yPred *mat.Dense) float64
}

// Layer configuration details
type LayerConfig struct {
	Type string
	Data json.RawMessage
}

type ConfigLayer interface {
	Marshal() LayerConfig
}

// Unmarshal JSON data and construct new layer
func (l LayerConfig) Unmarshal() Layer {
	switch l.Type {
	case "linear":
		cfg := new(Linear)
		return cfg.unmarshal(l.Data)
	case "activation":
		cfg := new(Activation)
		return cfg.unmarshal(l.Data)
	case "logRegression":
		return &logRegression{}
	case "flatten":
		return &flatten{}
	default:
		panic("invalid layer type: " + l.Type)
	}
}

func (l LayerConfig) String() string {
	return l.Unmarshal().ToString()
}

// Linear fully connected layer, implements ParamLayer interface.
type Linear struct {
	Nout int
}

func (c Linear) Marshal() LayerConfig {
	return LayerConfig{Type: "linear", Data: marshal(c)}
}

func (c Linear) ToString() string {
	return fmt.Sprintf("linear %+v", c)
}

func (c *Linear) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	return &linear{Linear: *c}
}

// Sigmoid, tanh or relu activation layer.
type Activation struct {
	Atype string
}

func (c Activation) Marshal() LayerConfig {
	return LayerConfig{Type: "activation", Data: marshal(c)}
}

func (c Activation) ToString() string {
	return fmt.Sprintf("activation %+v", c)
}

func (c *Activation) unmarshal(data json.RawMessage) Layer {
	unmarshal(data, c)
	layer := &activation{Activation: *c}
	switch c.Atype {
	case "sigmoid":
		layer.activ = sigmoid
		layer.deriv = sigmoidD
	case "tanh":
		layer.activ = math.Tanh
		layer.deriv = tanhD
	case "relu":
		layer.activ = relu
		layer.deriv = reluD
	default:
		panic(fmt.Sprintf("activation type %s invalid", c.Atype))
	}
	return layer
}

// LogRegression output layer with softmax activation and cross entropy loss.
type LogRegression struct{}

func (c LogRegression) Marshal() LayerConfig {
	return LayerConfig{Type: "logRegression"}
}

// Flatten layer reshapes the input to one feature dimension per sample.
type Flatten struct{}

func (c Flatten) Marshal() LayerConfig {
	return LayerConfig{Type: "flatten"}
}

// linear layer implementation
type linear struct {
	Linear
	nin   int
	src   *mat.Dense
	w, dw *mat.Dense
	b, db []float64
}

func (l *linear) Init(inShape []int) {
	if len(inShape) != 1 {
		panic("Linear: expect flattened input")
	}
	l.nin = inShape[0]
	l.w = mat.NewDense(l.nin, l.Nout, nil)
	l.dw = mat.NewDense(l.nin, l.Nout, nil)
	l.b = make([]float64, l.Nout)
	l.db = make([]float64, l.Nout)
}

func (l *linear) OutShape(inShape []int) []int {
	return []int{l.Nout}
}

func (l *linear) Fprop(in *mat.Dense) *mat.Dense {
	l.src = in
	nBatch, _ := in.Dims()
	dst := mat.NewDense(nBatch, l.Nout, nil)
	dst.Mul(in, l.w)
	for i := 0; i < nBatch; i++ {
		row := dst.RawRowView(i)
		for j, bias := range l.b {
			row[j] += bias
		}
	}
	return dst
}

func (l *linear) Bprop(grad *mat.Dense) *mat.Dense {
	nBatch, _ := grad.Dims()
	l.dw.Mul(l.src.T(), grad)
	for j := range l.db {
		l.db[j] = 0
	}
	for i := 0; i < nBatch; i++ {
		row := grad.RawRowView(i)
		for j, g := range row {
			l.db[j] += g
		}
	}
	dsrc := mat.NewDense(nBatch, l.nin, nil)
	dsrc.Mul(grad, l.w.T())
	return dsrc
}

func (l *linear) InitParams(scale, bias float64, normal bool, rng *rand.Rand) {
	data := l.w.RawMatrix().Data
	for i := range data {
		if normal {
			data[i] = rng.NormFloat64() * scale
		} else {
			data[i] = rng.Float64() * scale
		}
	}
	for j := range l.b {
		l.b[j] = bias
	}
}

func (l *linear) Params() (W *mat.Dense, B []float64) {
	return l.w, l.b
}

func (l *linear) SetParams(W *mat.Dense, B []float64) {
	l.w.Copy(W)
	copy(l.b, B)
}

func (l *linear) ParamCount() int {
	return l.nin*l.Nout + l.Nout
}

func (l *linear) UpdateParams(learningRate, weightDecay float64) {
	if l.src == nil {
		return
	}
	nBatch, _ := l.src.Dims()
	n := float64(nBatch)
	wData := l.w.RawMatrix().Data
	dwData := l.dw.RawMatrix().Data
	for i, dw := range dwData {
		wData[i] -= learningRate * (dw/n + weightDecay*wData[i])
	}
	for j, db := range l.db {
		l.b[j] -= learningRate * db / n
	}
}

// activation layer implementation
type activation struct {
	Activation
	src   *mat.Dense
	activ func(x float64) float64
	deriv func(y float64) float64
}

func (l *activation) Init(inShape []int) {}

func (l *activation) OutShape(inShape []int) []int { return inShape }

func (l *activation) Fprop(in *mat.Dense) *mat.Dense {
	l.src = in
	var dst mat.Dense
	dst.Apply(func(i, j int, v float64) float64 { return l.activ(v) }, in)
	return &dst
}

func (l *activation) Bprop(grad *mat.Dense) *mat.Dense {
	var dsrc mat.Dense
	dsrc.Apply(func(i, j int, v float64) float64 { return v * l.deriv(l.src.At(i, j)) }, grad)
	return &dsrc
}

// log regression output layer
type logRegression struct{}

func (l *logRegression) ToString() string { return "logRegression" }

func (l *logRegression) Init(inShape []int) {}

func (l *logRegression) OutShape(inShape []int) []int { return inShape }

// Fprop applies a row wise softmax, shifted by the row maximum for stability.
func (l *logRegression) Fprop(in *mat.Dense) *mat.Dense {
	nBatch, nOut := in.Dims()
	dst := mat.NewDense(nBatch, nOut, nil)
	for i := 0; i < nBatch; i++ {
		src := in.RawRowView(i)
		row := dst.RawRowView(i)
		max := src[0]
		for _, v := range src[1:] {
			if v > max {
				max = v
			}
		}
		sum := 0.0
		for j, v := range src {
			row[j] = math.Exp(v - max)
			sum += row[j]
		}
		for j := range row {
			row[j] /= sum
		}
	}
	return dst
}

func (l *logRegression) Bprop(grad *mat.Dense) *mat.Dense {
	return grad
}

// Loss is the categorical cross entropy summed over the batch.
func (l *logRegression) Loss(yOneHot, yPred *mat.Dense) float64 {
	nBatch, nOut := yPred.Dims()
	loss := 0.0
	for i := 0; i < nBatch; i++ {
		y := yOneHot.RawRowView(i)
		p := yPred.RawRowView(i)
		for j := 0; j < nOut; j++ {
			if y[j] != 0 {
				loss -= y[j] * math.Log(math.Max(p[j], lossEpsilon))
			}
		}
	}
	return loss
}

type flatten struct {
	nfeat int
}

func (l *flatten) ToString() string { return "flatten" }

func (l *flatten) Init(inShape []int) {
	l.nfeat = Prod(inShape)
}

func (l *flatten) OutShape(inShape []int) []int {
	return []int{Prod(inShape)}
}

// Batches are already stored one sample per row so flattening is purely
// a change of the recorded shape.
func (l *flatten) Fprop(in *mat.Dense) *mat.Dense { return in }

func (l *flatten) Bprop(grad *mat.Dense) *mat.Dense { return grad }

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func sigmoidD(x float64) float64 {
	s := sigmoid(x)
	return s * (1 - s)
}

func tanhD(x float64) float64 {
	t := math.Tanh(x)
	return 1 - t*t
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func reluD(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

// Prod returns the product of the dimensions.
func Prod(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func marshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func unmarshal(data json.RawMessage, v interface{}) {
	err := json.Unmarshal(data, v)
	if err != nil {
		panic(err)
	}
}
