package nnet

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/vicky722/headstart/stats"
)

// emaEpochs is the smoothing window for the average validation error.
const emaEpochs = 5

// Stats is one training history record: the loss and error values after an epoch.
// Values are ordered as per StatsHeaders.
type Stats struct {
	Epoch   int
	Values  []float64
	Elapsed time.Duration
}

// StatsHeaders returns the column names matching Stats.Values.
func StatsHeaders() []string {
	return []string{"loss", "valid loss", "valid error", "avg error"}
}

func (s Stats) Format() []string {
	str := []string{fmt.Sprintf("%7.4f", s.Values[0])}
	if len(s.Values) > 1 {
		str = append(str, fmt.Sprintf("%7.4f", s.Values[1]))
	}
	if len(s.Values) > 2 {
		for _, v := range s.Values[2:] {
			str = append(str, fmt.Sprintf("%6.2f%%", v*100))
		}
	}
	return str
}

func (s Stats) Copy() Stats {
	stats := s
	stats.Values = append([]float64{}, s.Values...)
	return stats
}

// Tester interface to evaluate the performance after each epoch, Test method
// returns true if training should stop.
type Tester interface {
	Test(net *Network, epoch int, loss float64, start time.Time) bool
}

// TestBase evaluates loss and error on the validation set after each epoch and
// appends the results to the training history. The history is append only while
// training runs and read only afterwards.
type TestBase struct {
	Valid   *Dataset
	Stats   []Stats
	Pred    []int32
	Labels  []int32
	Headers []string
}

// NewTestBase creates a tester evaluating the given validation set.
func NewTestBase(valid *Dataset) *TestBase {
	t := &TestBase{Valid: valid, Stats: []Stats{}, Headers: StatsHeaders()}
	if valid != nil {
		t.Labels = make([]int32, valid.Samples)
		valid.Label(seq(valid.Samples), t.Labels)
	}
	return t
}

// Predict allocates the prediction buffer so that per sample predicted classes
// are captured when the test is next run.
func (t *TestBase) Predict() *TestBase {
	if t.Valid != nil {
		t.Pred = make([]int32, t.Valid.Samples)
	}
	return t
}

// Reset clears the stats prior to a new run.
func (t *TestBase) Reset() {
	t.Stats = t.Stats[:0]
}

// Test evaluates the network, called from the Train function on completion of
// each epoch.
func (t *TestBase) Test(net *Network, epoch int, loss float64, start time.Time) bool {
	s := Stats{Epoch: epoch, Values: []float64{loss}}
	if t.Valid != nil {
		validLoss, validErr := net.Error(t.Valid, t.Pred)
		// exponential moving average of the validation error
		avgErr := 0.0
		if n := len(t.Stats); n > 0 && len(t.Stats[n-1].Values) > 3 {
			avgErr = t.Stats[n-1].Values[3]
		}
		avgErr = stats.EMA(avgErr).Add(validErr, emaEpochs)
		s.Values = append(s.Values, validLoss, validErr, avgErr)
	}
	s.Elapsed = time.Since(start)
	t.Stats = append(t.Stats, s)
	return epoch >= net.MaxEpoch || (net.MinLoss > 0 && loss <= net.MinLoss)
}

// TestLogger wraps a TestBase and logs the stats to stdout after each epoch.
type TestLogger struct {
	*TestBase
}

func NewTestLogger(valid *Dataset) *TestLogger {
	return &TestLogger{TestBase: NewTestBase(valid)}
}

func (t *TestLogger) Test(net *Network, epoch int, loss float64, start time.Time) bool {
	done := t.TestBase.Test(net, epoch, loss, start)
	s := t.Stats[len(t.Stats)-1]
	if done || net.LogEvery == 0 || epoch%net.LogEvery == 0 {
		msg := fmt.Sprintf("epoch %3d:", epoch)
		for i, val := range s.Format() {
			msg += fmt.Sprintf("  %s =%s", t.Headers[i], val)
		}
		fmt.Println(msg)
	}
	if done {
		fmt.Printf("run time: %s\n", s.Elapsed.Round(10*time.Millisecond))
	}
	return done
}

// Train the network on the given training set by updating the head weights.
// Training runs for at most MaxEpoch epochs, calling the tester after each one.
func Train(net *Network, dset *Dataset, test Tester) {
	done := false
	start := time.Now()
	for epoch := 1; epoch <= net.MaxEpoch && !done; epoch++ {
		loss := TrainEpoch(net, dset)
		done = test.Test(net, epoch, loss, start)
	}
}

// TrainEpoch performs one training epoch and returns the average loss per sample.
// With Steps() == 0 no batches are processed and the returned loss is zero: an
// oversized batch size is a silent no-op, not an error.
func TrainEpoch(net *Network, dset *Dataset) float64 {
	if net.Shuffle {
		dset.Shuffle()
	}
	dset.NextEpoch()
	lossSum := 0.0
	samples := 0
	for batch := 0; batch < dset.Steps(); batch++ {
		x, _, yOneHot := dset.NextBatch()
		yPred := net.Fprop(x)
		if net.DebugLevel >= 2 {
			fmt.Printf("batch %d yPred:\n%v\n", batch, mat.Formatted(yPred))
		}
		lossSum += net.OutLayer().Loss(yOneHot, yPred)
		// difference at the output feeds the backward pass
		nBatch, nOut := yPred.Dims()
		grad := mat.NewDense(nBatch, nOut, nil)
		grad.Sub(yPred, yOneHot)
		for i := len(net.Layers) - 1; i >= 0; i-- {
			grad = net.Layers[i].Bprop(grad)
		}
		for _, layer := range net.Layers {
			if l, ok := layer.(ParamLayer); ok {
				l.UpdateParams(net.Eta, net.Lambda)
			}
		}
		samples += nBatch
	}
	if samples == 0 {
		return 0
	}
	return lossSum / float64(samples)
}

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}
