// Package web has a web based interface for head training and evaluation.
package web

import (
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vicky722/headstart/img"
	"github.com/vicky722/headstart/nnet"
	"github.com/vicky722/headstart/stats"
)

// Network wraps the model under training together with its data sets, history
// and dashboard state. The mutex guards all fields: the training goroutine and
// the request handlers never touch the model concurrently.
type Network struct {
	Conf     nnet.Config
	Model    *nnet.Model
	RunID    string
	Epoch    int
	History  []nnet.Stats
	Classes  []string
	trainImg *img.Data
	validImg *img.Data
	trainSet *nnet.Dataset
	validSet *nnet.Dataset
	test     *nnet.TestBase
	conn     *websocket.Conn
	rng      *rand.Rand
	running  bool
	stop     bool
	sync.Mutex
}

// NewNetwork loads the data directory from the config and composes a new model.
func NewNetwork(conf nnet.Config) (*Network, error) {
	n := &Network{Conf: conf}
	if err := n.Init(); err != nil {
		return nil, err
	}
	return n, nil
}

// Init reloads the data and rebuilds the model and datasets from the current config.
func (n *Network) Init() error {
	log.Printf("init network: dataDir=%s base=%s\n", n.Conf.DataDir, n.Conf.BaseModel)
	n.rng = nnet.SetSeed(n.Conf.RandSeed)
	data, err := img.LoadDir(n.Conf.DataDir, n.Conf.ImageSize)
	if err != nil {
		return err
	}
	n.Classes = data.Classes()
	train, valid, err := data.Split(n.Conf.ValidFrac, n.rng)
	if err != nil {
		return err
	}
	n.trainImg, n.validImg = train, valid
	if n.Conf.Augment {
		train = img.AugmentData(train, 1, n.rng)
	}
	base, err := nnet.OpenBase(n.Conf)
	if err != nil {
		return err
	}
	n.Model = nnet.Compose(base, n.Classes, n.Conf)
	trainFeat, err := n.Model.Featurize(train)
	if err != nil {
		return err
	}
	validFeat, err := n.Model.Featurize(valid)
	if err != nil {
		return err
	}
	n.trainSet = nnet.NewDataset(trainFeat, n.Conf.TrainBatch, n.Conf.MaxSamples, n.Conf.DropLast, n.rng)
	n.validSet = nnet.NewDataset(validFeat, n.Conf.TestBatch, n.Conf.MaxSamples, false, n.rng)
	n.test = nnet.NewTestBase(n.validSet).Predict()
	n.Epoch = 0
	n.History = nil
	return nil
}

// Running reports whether a training goroutine is active.
func (n *Network) Running() bool {
	return n.running
}

// Train starts a training run in the background. With restart set the weights
// and history are reinitialised first. The caller must hold the lock.
func (n *Network) Train(restart bool) error {
	if n.running {
		return errors.New("web: training already running")
	}
	if restart {
		if n.Epoch > 0 {
			if err := n.Init(); err != nil {
				return err
			}
		}
		n.Model.Head.InitWeights(n.rng)
		n.test.Reset()
		n.RunID = uuid.New().String()
	}
	log.Printf("train: run=%s restart=%v epochs=%d\n", n.RunID, restart, n.Conf.MaxEpoch)
	n.running = true
	n.stop = false
	go func() {
		quit := false
		epoch := n.Epoch + 1
		net := n.Model.Head
		start := time.Now()
		for epoch <= net.MaxEpoch && !quit {
			loss := nnet.TrainEpoch(net, n.trainSet)
			done := n.test.Test(net, epoch, loss, start)
			epoch, quit = n.nextEpoch(epoch)
			quit = quit || done
		}
		n.Lock()
		n.running = false
		n.Unlock()
		log.Printf("train: run=%s done epoch=%d\n", n.RunID, n.Epoch)
	}()
	return nil
}

// Stop interrupts training at the end of the current epoch.
func (n *Network) Stop() {
	n.stop = true
}

func (n *Network) nextEpoch(epoch int) (int, bool) {
	quit := false
	n.Lock()
	n.Epoch = epoch
	if n.stop {
		n.stop = false
		quit = true
	}
	if len(n.test.Stats) > 0 {
		n.History = append(n.History, n.test.Stats[len(n.test.Stats)-1].Copy())
	}
	conn := n.conn
	n.Unlock()
	// notify the dashboard so it refreshes the stats frame
	if conn != nil {
		msg := []byte(n.RunID + ":" + strconv.Itoa(epoch))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Println("nextEpoch: error writing to websocket", err)
		}
	}
	return epoch + 1, quit
}

// Confusion evaluates the confusion matrix over the configured number of
// validation batches. The caller must hold the lock.
func (n *Network) Confusion() (*stats.ConfusionMatrix, error) {
	return nnet.Evaluate(n.Model.Head, n.validSet, n.Conf.EvalBatches)
}
