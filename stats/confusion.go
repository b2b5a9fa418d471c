package stats

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ConfusionMatrix counts actual versus predicted classes: rows index the true
// class, columns the predicted class.
type ConfusionMatrix struct {
	NumClasses int
	Matrix     [][]int
	Total      int
}

// NewConfusionMatrix creates an empty numClasses x numClasses matrix.
func NewConfusionMatrix(numClasses int) *ConfusionMatrix {
	m := make([][]int, numClasses)
	for i := range m {
		m[i] = make([]int, numClasses)
	}
	return &ConfusionMatrix{NumClasses: numClasses, Matrix: m}
}

// Add records one sample. Out of range class indices are an error.
func (cm *ConfusionMatrix) Add(actual, predicted int) error {
	if actual < 0 || actual >= cm.NumClasses || predicted < 0 || predicted >= cm.NumClasses {
		return errors.Errorf("stats: class index out of range: actual=%d predicted=%d", actual, predicted)
	}
	cm.Matrix[actual][predicted]++
	cm.Total++
	return nil
}

// Update records a batch of samples from class indices. The cell counts always
// sum to the number of samples recorded.
func (cm *ConfusionMatrix) Update(actual, predicted []int32) error {
	if len(actual) != len(predicted) {
		return errors.Errorf("stats: length mismatch: %d actual vs %d predicted", len(actual), len(predicted))
	}
	for i := range actual {
		if err := cm.Add(int(actual[i]), int(predicted[i])); err != nil {
			return err
		}
	}
	return nil
}

// Accuracy returns the fraction of samples on the diagonal.
func (cm *ConfusionMatrix) Accuracy() float64 {
	if cm.Total == 0 {
		return 0
	}
	correct := 0
	for i := range cm.Matrix {
		correct += cm.Matrix[i][i]
	}
	return float64(correct) / float64(cm.Total)
}

// Precision returns the per class precision: correct / predicted count.
func (cm *ConfusionMatrix) Precision(class int) float64 {
	pred := 0
	for i := range cm.Matrix {
		pred += cm.Matrix[i][class]
	}
	if pred == 0 {
		return 0
	}
	return float64(cm.Matrix[class][class]) / float64(pred)
}

// Recall returns the per class recall: correct / actual count.
func (cm *ConfusionMatrix) Recall(class int) float64 {
	actual := 0
	for _, n := range cm.Matrix[class] {
		actual += n
	}
	if actual == 0 {
		return 0
	}
	return float64(cm.Matrix[class][class]) / float64(actual)
}

func (cm *ConfusionMatrix) String() string {
	var sb strings.Builder
	for _, row := range cm.Matrix {
		for j, n := range row {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%4d", n)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
