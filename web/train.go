package web

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vicky722/headstart/nnet"
	"github.com/vicky722/headstart/report"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// TrainPage holds the handler state for the training pages.
type TrainPage struct {
	*Templates
	net *Network
}

// NewTrainPage creates the base data for handler functions which perform
// training and display the stats.
func NewTrainPage(t *Templates, net *Network) *TrainPage {
	p := &TrainPage{net: net}
	p.Templates = t.Select("/train")
	p.AddOption(Link{Name: "start", Url: "/train/start"})
	p.AddOption(Link{Name: "continue", Url: "/train/continue"})
	p.AddOption(Link{Name: "stop", Url: "/train/stop"})
	return p
}

// Base is the handler for the main training page and the start/stop commands.
func (p *TrainPage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd := mux.Vars(r)["cmd"]
		p.net.Lock()
		defer p.net.Unlock()
		switch cmd {
		case "start", "continue":
			if p.net.Running() {
				p.SetFlash(w, r, "skip start - already running")
			} else if err := p.net.Train(cmd == "start"); err != nil {
				p.SetFlash(w, r, err.Error())
			}
			http.Redirect(w, r, "/train", http.StatusFound)
		case "stop":
			p.net.Stop()
			http.Redirect(w, r, "/train", http.StatusFound)
		default:
			if err := p.ExecuteTemplate(w, "train", p.pageData(w, r)); err != nil {
				logError(w, err)
			}
		}
	}
}

// Stats is the handler for the stats frame, refreshed via the websocket trigger.
func (p *TrainPage) Stats() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		if err := p.ExecuteTemplate(w, "stats", p.pageData(w, r)); err != nil {
			logError(w, err)
		}
	}
}

// Websocket is the handler for the websocket connection used to notify the
// dashboard after each epoch.
func (p *TrainPage) Websocket() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logError(w, err)
			return
		}
		p.net.Lock()
		p.net.conn = conn
		p.net.Unlock()
	}
}

// LossPlot is the handler serving the loss curves as SVG.
func (p *TrainPage) LossPlot() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		svg, err := report.LossPlot(p.net.History, 560, 400)
		p.net.Unlock()
		writeSVG(w, svg, err)
	}
}

// ErrorPlot is the handler serving the validation error curve as SVG.
func (p *TrainPage) ErrorPlot() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		svg, err := report.ErrorPlot(p.net.History, 560, 400)
		p.net.Unlock()
		writeSVG(w, svg, err)
	}
}

// Confusion is the handler serving the validation confusion matrix as SVG.
func (p *TrainPage) Confusion() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		cm, err := p.net.Confusion()
		var svg []byte
		if err == nil {
			svg, err = report.ConfusionPlot(cm, p.net.Classes, 480, 480)
		}
		p.net.Unlock()
		writeSVG(w, svg, err)
	}
}

func writeSVG(w http.ResponseWriter, svg []byte, err error) {
	if err != nil {
		logError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

type trainData struct {
	*TrainPage
	Heading template.HTML
	Headers []string
	Stats   []nnet.Stats
	Flashes []string
}

func (p *TrainPage) pageData(w http.ResponseWriter, r *http.Request) trainData {
	d := trainData{
		TrainPage: p,
		Heading:   p.heading(),
		Headers:   nnet.StatsHeaders(),
		Flashes:   p.Templates.Flashes(w, r),
	}
	last := len(p.net.History) - 1
	for i := last; i >= 0; i-- {
		d.Stats = append(d.Stats, p.net.History[i])
	}
	return d
}

func (p *TrainPage) heading() template.HTML {
	run := p.net.RunID
	if len(run) > 8 {
		run = run[:8]
	}
	s := fmt.Sprintf(`run <span id="run">%s</span> epoch <span id="epoch">%d</span> of %d`,
		run, p.net.Epoch, p.net.Conf.MaxEpoch)
	return template.HTML(s)
}

// RunTime returns the elapsed time for the latest epoch.
func (p *TrainPage) RunTime() string {
	if len(p.net.History) == 0 {
		return ""
	}
	elapsed := p.net.History[len(p.net.History)-1].Elapsed
	return fmt.Sprintf("run time: %s", elapsed.Round(10*time.Millisecond))
}
