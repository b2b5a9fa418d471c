package nnet

import (
	"encoding/gob"
	"image"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/vicky722/headstart/img"
	"github.com/vicky722/headstart/pretrain"
)

// Model is a complete transfer learning model: a frozen pretrained base which is
// never updated, and a trainable head. The class names are fixed at composition
// time and shared between training, evaluation and inference.
type Model struct {
	Conf    Config
	Classes []string
	Base    pretrain.Extractor
	Head    *Network
}

// Compose builds a model from the frozen base and the target classes. If the
// config names no layers the standard head is used: flatten, a dense layer with
// one output per class and a softmax output. Only head parameters are trainable.
func Compose(base pretrain.Extractor, classes []string, conf Config) *Model {
	if len(conf.Layers) == 0 {
		conf = conf.AddLayers(Flatten{}, Linear{Nout: len(classes)}, LogRegression{})
	}
	return &Model{Conf: conf, Classes: classes, Base: base, Head: New(conf, base.OutShape())}
}

// OpenBase loads the base feature extractor named by the config: either the
// built in "pool" baseline or the path of an .onnx export.
func OpenBase(conf Config) (pretrain.Extractor, error) {
	if conf.BaseModel == "" || conf.BaseModel == "pool" {
		return pretrain.NewPool([]int{conf.ImageSize, conf.ImageSize, 3}, conf.PoolStride)
	}
	return pretrain.NewONNX(conf.BaseModel, conf.BaseMeta)
}

// Featurize runs every image through the frozen base and returns an in memory
// feature set with the same labels and class ordering. Head training then
// iterates over these fixed features: the base parameters cannot change since
// they are never touched again.
func (m *Model) Featurize(d *img.Data) (Data, error) {
	batch := m.Conf.TestBatch
	if batch <= 0 {
		batch = 32
	}
	outShape := m.Base.OutShape()
	nfeat := Prod(outShape)
	inputs := make([]float32, d.Len()*nfeat)
	for start := 0; start < d.Len(); start += batch {
		end := start + batch
		if end > d.Len() {
			end = d.Len()
		}
		feats, err := m.Base.Extract(d.Batch(start, end))
		if err != nil {
			return nil, errors.Wrap(err, "nnet: featurize")
		}
		for i := 0; i < end-start; i++ {
			row := feats.RawRowView(i)
			for j, v := range row {
				inputs[(start+i)*nfeat+j] = float32(v)
			}
		}
	}
	labels := append([]int32{}, d.Labels...)
	return NewData(d.Classes(), outShape, labels, inputs), nil
}

// PredictBatch classifies a batch of prepared images, returning the predicted
// class index per image and the output probabilities.
func (m *Model) PredictBatch(images []*img.Image) ([]int32, *mat.Dense, error) {
	feats, err := m.Base.Extract(images)
	if err != nil {
		return nil, nil, errors.Wrap(err, "nnet: predict")
	}
	classes, probs := m.Head.Predict(feats)
	return classes, probs, nil
}

// PredictImage classifies a single raw image: it is resampled and normalised
// exactly as at training time, run through the model as a batch of one, and the
// argmax class index returned.
func (m *Model) PredictImage(src image.Image) (int, error) {
	prepared := img.Scale(src, m.Conf.ImageSize)
	classes, _, err := m.PredictBatch([]*img.Image{prepared})
	if err != nil {
		return 0, err
	}
	return int(classes[0]), nil
}

// PredictClass returns the class name for a single raw image.
func (m *Model) PredictClass(src image.Image) (string, error) {
	ix, err := m.PredictImage(src)
	if err != nil {
		return "", err
	}
	return m.Classes[ix], nil
}

// Close releases the base extractor.
func (m *Model) Close() error {
	return m.Base.Close()
}

// LayerData holds the weights for one head layer when saved to file.
type LayerData struct {
	Layer   int
	Rows    int
	Cols    int
	Weights []float64
	Biases  []float64
}

type modelData struct {
	Conf    Config
	Classes []string
	Params  []LayerData
}

// SaveModel writes the model config, class names and head weights to path in
// gob format. The frozen base is referenced by the config, never serialised.
func SaveModel(path string, m *Model) error {
	data := modelData{Conf: m.Conf, Classes: m.Classes}
	for i, layer := range m.Head.Layers {
		if l, ok := layer.(ParamLayer); ok {
			W, B := l.Params()
			rows, cols := W.Dims()
			data.Params = append(data.Params, LayerData{
				Layer:   i,
				Rows:    rows,
				Cols:    cols,
				Weights: append([]float64{}, W.RawMatrix().Data...),
				Biases:  append([]float64{}, B...),
			})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "nnet: saving model")
	}
	defer f.Close()
	return errors.Wrap(gob.NewEncoder(f).Encode(&data), "nnet: encoding model")
}

// LoadModel reads a model saved with SaveModel, reopening the base extractor
// named in the config and restoring the head weights.
func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "nnet: loading model")
	}
	defer f.Close()
	var data modelData
	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return nil, errors.Wrapf(err, "nnet: decoding model %s", path)
	}
	base, err := OpenBase(data.Conf)
	if err != nil {
		return nil, err
	}
	m := Compose(base, data.Classes, data.Conf)
	for _, p := range data.Params {
		if p.Layer >= len(m.Head.Layers) {
			return nil, errors.Errorf("nnet: saved layer %d out of range", p.Layer)
		}
		l, ok := m.Head.Layers[p.Layer].(ParamLayer)
		if !ok {
			return nil, errors.Errorf("nnet: saved layer %d has no parameters", p.Layer)
		}
		l.SetParams(mat.NewDense(p.Rows, p.Cols, p.Weights), p.Biases)
	}
	return m, nil
}
