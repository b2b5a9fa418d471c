package nnet

import (
	"github.com/vicky722/headstart/stats"
)

// Evaluate builds a confusion matrix from predictions over the first batches
// validation batches. batches <= 0 evaluates a single batch, so this is a spot
// check by default rather than a full pass over the set.
func Evaluate(net *Network, dset *Dataset, batches int) (*stats.ConfusionMatrix, error) {
	cm := stats.NewConfusionMatrix(dset.NumClasses())
	if batches <= 0 {
		batches = 1
	}
	if steps := dset.Steps(); batches > steps {
		batches = steps
	}
	dset.NextEpoch()
	for b := 0; b < batches; b++ {
		x, y, _ := dset.NextBatch()
		classes, _ := net.Predict(x)
		if err := cm.Update(y, classes); err != nil {
			return nil, err
		}
	}
	return cm, nil
}
