package pretrain

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/mat"

	"github.com/vicky722/headstart/img"
)

// Metadata describes the exported .onnx feature extractor: tensor names and
// shapes with a leading batch dimension of 1, input layout NCHW.
type Metadata struct {
	InputName   string  `json:"input_name"`
	OutputName  string  `json:"output_name"`
	InputShape  []int64 `json:"input_shape"`
	OutputShape []int64 `json:"output_shape"`
}

// ONNX is a frozen feature extractor backed by a pretrained network exported
// with its final classification layer removed. Failing to load the weights or
// initialise the runtime is fatal to the workflow: there is no fallback here.
type ONNX struct {
	Meta         Metadata
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewONNX loads the model weights from modelPath and the tensor description
// from the metadata JSON file.
func NewONNX(modelPath, metaPath string) (*ONNX, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, errors.Wrap(err, "pretrain: initializing ONNX environment")
	}
	metaFile, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, errors.Wrapf(err, "pretrain: reading metadata %s", metaPath)
	}
	var meta Metadata
	if err := json.Unmarshal(metaFile, &meta); err != nil {
		return nil, errors.Wrap(err, "pretrain: parsing metadata")
	}
	if len(meta.InputShape) != 4 || meta.InputShape[0] != 1 {
		return nil, errors.Errorf("pretrain: expect NCHW input shape with batch 1, have %v", meta.InputShape)
	}
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.InputShape...))
	if err != nil {
		return nil, errors.Wrap(err, "pretrain: creating input tensor")
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.Wrap(err, "pretrain: creating output tensor")
	}
	session, err := ort.NewAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrapf(err, "pretrain: creating ONNX session for %s", modelPath)
	}
	return &ONNX{Meta: meta, session: session, inputTensor: inputTensor, outputTensor: outputTensor}, nil
}

func (o *ONNX) OutShape() []int {
	shape := make([]int, 0, len(o.Meta.OutputShape)-1)
	for _, dim := range o.Meta.OutputShape[1:] {
		shape = append(shape, int(dim))
	}
	return shape
}

// Extract runs each image through the session in turn and collects one feature
// row per image. The session holds fixed shape tensors so images are processed
// singly, matching the exported batch dimension.
func (o *ONNX) Extract(images []*img.Image) (*mat.Dense, error) {
	channels := int(o.Meta.InputShape[1])
	height := int(o.Meta.InputShape[2])
	width := int(o.Meta.InputShape[3])
	nfeat := 1
	for _, dim := range o.OutShape() {
		nfeat *= dim
	}
	dst := mat.NewDense(len(images), nfeat, nil)
	input := o.inputTensor.GetData()
	for i, m := range images {
		if m.Height != height || m.Width != width || m.Channels != channels {
			return nil, errors.Errorf("pretrain: image %d shape %v does not match input %dx%dx%d",
				i, m.Shape(), height, width, channels)
		}
		// image planes are column major, the runtime expects row major NCHW
		for ch := 0; ch < channels; ch++ {
			pix := m.Pixels(ch)
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					input[ch*height*width+y*width+x] = pix[y+x*height]
				}
			}
		}
		if err := o.session.Run(); err != nil {
			return nil, errors.Wrapf(err, "pretrain: inference failed for image %d", i)
		}
		row := dst.RawRowView(i)
		for j, v := range o.outputTensor.GetData() {
			row[j] = float64(v)
		}
	}
	return dst, nil
}

func (o *ONNX) Close() error {
	if o.inputTensor != nil {
		o.inputTensor.Destroy()
	}
	if o.outputTensor != nil {
		o.outputTensor.Destroy()
	}
	if o.session != nil {
		o.session.Destroy()
	}
	return ort.DestroyEnvironment()
}
