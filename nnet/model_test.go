package nnet

import (
	"math"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vicky722/headstart/img"
)

func testConfig() Config {
	conf := DefaultConfig()
	conf.ImageSize = 32
	conf.PoolStride = 8
	conf.TrainBatch = 10
	conf.MaxEpoch = 3
	conf.RandSeed = 42
	return conf
}

func testModel(t *testing.T, conf Config) (*Model, *Dataset, *Dataset) {
	rng := SetSeed(conf.RandSeed)
	data := img.GenerateShapes(conf.ImageSize, 20, rng)
	train, valid, err := data.Split(conf.ValidFrac, rng)
	if err != nil {
		t.Fatal(err)
	}
	base, err := OpenBase(conf)
	if err != nil {
		t.Fatal(err)
	}
	m := Compose(base, data.Classes(), conf)
	trainFeat, err := m.Featurize(train)
	if err != nil {
		t.Fatal(err)
	}
	validFeat, err := m.Featurize(valid)
	if err != nil {
		t.Fatal(err)
	}
	trainSet := NewDataset(trainFeat, conf.TrainBatch, conf.MaxSamples, conf.DropLast, rng)
	validSet := NewDataset(validFeat, conf.TestBatch, conf.MaxSamples, false, rng)
	m.Head.InitWeights(rng)
	return m, trainSet, validSet
}

func TestCompose(t *testing.T) {
	conf := testConfig()
	base, err := OpenBase(conf)
	if err != nil {
		t.Fatal(err)
	}
	m := Compose(base, img.ShapeNames, conf)
	if len(m.Head.Layers) != 3 {
		t.Fatal("default head layers: got", len(m.Head.Layers))
	}
	// dense output size matches the class count
	nfeat := Prod(base.OutShape())
	if n := m.Head.ParamCount(); n != nfeat*3+3 {
		t.Error("param count: got", n, "expect", nfeat*3+3)
	}
	if !reflect.DeepEqual(m.Classes, img.ShapeNames) {
		t.Error("classes: got", m.Classes)
	}
}

func TestTrainHistory(t *testing.T) {
	conf := testConfig()
	m, trainSet, validSet := testModel(t, conf)
	test := NewTestBase(validSet)
	Train(m.Head, trainSet, test)
	if len(test.Stats) != conf.MaxEpoch {
		t.Fatal("history records: got", len(test.Stats), "expect", conf.MaxEpoch)
	}
	for i, s := range test.Stats {
		if s.Epoch != i+1 {
			t.Error("record", i, "epoch: got", s.Epoch)
		}
		if len(s.Values) != 4 {
			t.Fatal("record", i, "values: got", len(s.Values))
		}
		for j, v := range s.Values {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				t.Error("record", i, "value", j, "invalid:", v)
			}
		}
	}
	// the average error column is the smoothed validation error
	first := test.Stats[0]
	if first.Values[3] != first.Values[2] {
		t.Error("first avg error: got", first.Values[3], "expect", first.Values[2])
	}
}

func TestTrainOversizedBatch(t *testing.T) {
	conf := testConfig()
	conf.TrainBatch = 1000
	conf.DropLast = true
	m, trainSet, _ := testModel(t, conf)
	if trainSet.Steps() != 0 {
		t.Fatal("steps: got", trainSet.Steps(), "expect 0")
	}
	// an epoch with no batches is a no-op, not an error
	if loss := TrainEpoch(m.Head, trainSet); loss != 0 {
		t.Error("loss: got", loss, "expect 0")
	}
}

func TestFrozenBase(t *testing.T) {
	conf := testConfig()
	m, trainSet, _ := testModel(t, conf)
	before, err := m.Base.Extract([]*img.Image{img.DrawShape(conf.ImageSize, "circle", SetSeed(1))})
	if err != nil {
		t.Fatal(err)
	}
	snapshot := append([]float64{}, before.RawMatrix().Data...)
	for epoch := 0; epoch < 3; epoch++ {
		TrainEpoch(m.Head, trainSet)
	}
	after, err := m.Base.Extract([]*img.Image{img.DrawShape(conf.ImageSize, "circle", SetSeed(1))})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(snapshot, after.RawMatrix().Data) {
		t.Error("base features changed after head training")
	}
}

func TestEvaluate(t *testing.T) {
	conf := testConfig()
	m, trainSet, validSet := testModel(t, conf)
	for epoch := 0; epoch < conf.MaxEpoch; epoch++ {
		TrainEpoch(m.Head, trainSet)
	}
	cm, err := Evaluate(m.Head, validSet, conf.EvalBatches)
	if err != nil {
		t.Fatal(err)
	}
	if cm.NumClasses != 3 {
		t.Error("classes: got", cm.NumClasses)
	}
	// default evaluation covers a single batch
	if cm.Total != conf.TestBatch && cm.Total != validSet.Samples {
		t.Error("total: got", cm.Total)
	}
	sum := 0
	for _, row := range cm.Matrix {
		for _, n := range row {
			sum += n
		}
	}
	if sum != cm.Total {
		t.Error("matrix sum", sum, "!= total", cm.Total)
	}
}

func TestSaveLoadModel(t *testing.T) {
	conf := testConfig()
	m, trainSet, validSet := testModel(t, conf)
	for epoch := 0; epoch < conf.MaxEpoch; epoch++ {
		TrainEpoch(m.Head, trainSet)
	}
	path := filepath.Join(t.TempDir(), "shapes.model")
	if err := SaveModel(path, m); err != nil {
		t.Fatal(err)
	}
	m2, err := LoadModel(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m2.Classes, m.Classes) {
		t.Error("classes: got", m2.Classes)
	}
	validSet.NextEpoch()
	x, _, _ := validSet.NextBatch()
	p1, _ := m.Head.Predict(x)
	p2, _ := m2.Head.Predict(x)
	if !reflect.DeepEqual(p1, p2) {
		t.Error("predictions differ after reload")
	}
}

func TestPredictImage(t *testing.T) {
	conf := testConfig()
	m, trainSet, _ := testModel(t, conf)
	for epoch := 0; epoch < conf.MaxEpoch; epoch++ {
		TrainEpoch(m.Head, trainSet)
	}
	// all black input is still a valid image and maps to some class
	ix, err := m.PredictImage(img.NewRGB(conf.ImageSize, conf.ImageSize))
	if err != nil {
		t.Fatal(err)
	}
	if ix < 0 || ix >= len(m.Classes) {
		t.Error("class index out of range:", ix)
	}
	class, err := m.PredictClass(img.DrawShape(conf.ImageSize, "square", SetSeed(3)))
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, name := range m.Classes {
		if name == class {
			found = true
		}
	}
	if !found {
		t.Error("unknown class:", class)
	}
}
