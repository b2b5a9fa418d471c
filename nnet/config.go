package nnet

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Training configuration settings
type Config struct {
	DataDir       string
	BaseModel     string
	BaseMeta      string
	PoolStride    int
	ImageSize     int
	Eta           float64
	Lambda        float64
	Bias          float64
	NormalWeights bool
	Shuffle       bool
	Augment       bool
	DropLast      bool
	ValidFrac     float64
	TrainBatch    int
	TestBatch     int
	MaxEpoch      int
	MaxSamples    int
	EvalBatches   int
	LogEvery      int
	MinLoss       float64
	RandSeed      int64
	DebugLevel    int
	Layers        []LayerConfig
}

// DefaultConfig returns the settings for the standard transfer learning workflow:
// 224x224 RGB input, 0.3 validation split, batches of 30 and 3 training epochs.
func DefaultConfig() Config {
	return Config{
		DataDir:     "data/shapes",
		BaseModel:   "pool",
		PoolStride:  8,
		ImageSize:   224,
		Eta:         0.1,
		Shuffle:     true,
		DropLast:    true,
		ValidFrac:   0.3,
		TrainBatch:  30,
		TestBatch:   30,
		MaxEpoch:    3,
		EvalBatches: 1,
	}
}

// LoadConfig reads the network config from a JSON file.
func LoadConfig(path string) (c Config, err error) {
	f, err := os.Open(path)
	if err != nil {
		return c, errors.Wrap(err, "nnet: opening config")
	}
	defer f.Close()
	if err = json.NewDecoder(f).Decode(&c); err != nil {
		return c, errors.Wrapf(err, "nnet: decoding config %s", path)
	}
	return c, nil
}

// AddLayers appends layers to the config struct.
func (c Config) AddLayers(layers ...ConfigLayer) Config {
	for _, l := range layers {
		c.Layers = append(c.Layers, l.Marshal())
	}
	return c
}

// Save writes the config as JSON, replacing the file atomically.
func (c Config) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "nnet: saving config")
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err = enc.Encode(c); err != nil {
		f.Close()
		return errors.Wrap(err, "nnet: encoding config")
	}
	f.Close()
	return os.Rename(tmp, path)
}

func (c Config) Fields() []string {
	st := reflect.TypeOf(c)
	fld := make([]string, st.NumField()-1)
	for i := range fld {
		fld[i] = st.Field(i).Name
	}
	return fld
}

func (c Config) Get(key string) interface{} {
	s := reflect.ValueOf(c)
	return s.FieldByName(key).Interface()
}

func (c Config) String() string {
	fields := c.Fields()
	str := []string{"== Config =="}
	for _, key := range fields {
		str = append(str, fmt.Sprintf("%-14s: %v", key, c.Get(key)))
	}
	s := strings.Join(str, "\n")
	if c.Layers != nil {
		str = []string{"\n== Network =="}
		for i, layer := range c.Layers {
			str = append(str, fmt.Sprintf("%2d: %s", i, layer))
		}
		s += strings.Join(str, "\n")
	}
	return s
}

func (c Config) SetString(key, val string) (Config, error) {
	s := reflect.ValueOf(&c).Elem()
	f := s.FieldByName(key)
	if !f.IsValid() {
		return c, errors.Errorf("nnet: no such config field %s", key)
	}
	var err error
	switch f.Type().Kind() {
	case reflect.Int, reflect.Int64:
		var x int64
		if x, err = strconv.ParseInt(val, 10, 64); err == nil {
			f.SetInt(x)
		}
	case reflect.Float64:
		var x float64
		if x, err = strconv.ParseFloat(val, 64); err == nil {
			f.SetFloat(x)
		}
	case reflect.Bool:
		var x bool
		if x, err = strconv.ParseBool(val); err == nil {
			f.SetBool(x)
		}
	case reflect.String:
		f.SetString(val)
	default:
		return c, errors.Errorf("nnet: invalid type for SetString: %v", f.Type().Kind())
	}
	return c, err
}
