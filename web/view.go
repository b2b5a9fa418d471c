package web

import (
	"fmt"
	"net/http"

	"github.com/vicky722/headstart/nnet"
)

// ViewPage holds the handler state for the model summary page.
type ViewPage struct {
	*Templates
	net *Network
}

// LayerInfo describes one layer of the head for display.
type LayerInfo struct {
	Index  int
	Desc   string
	Shape  string
	Params int
}

// NewViewPage creates the base data for the model view handler.
func NewViewPage(t *Templates, net *Network) *ViewPage {
	p := &ViewPage{net: net}
	p.Templates = t.Select("/view")
	return p
}

// Base is the handler for the model summary page.
func (p *ViewPage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		if err := p.ExecuteTemplate(w, "view", p); err != nil {
			logError(w, err)
		}
	}
}

// Base model feature shape as produced by the frozen extractor.
func (p *ViewPage) FeatureShape() string {
	if p.net.Model == nil {
		return ""
	}
	return fmt.Sprint(p.net.Model.Base.OutShape())
}

// Layers lists the head layers with their input shape and parameter count.
func (p *ViewPage) Layers() []LayerInfo {
	if p.net.Model == nil {
		return nil
	}
	head := p.net.Model.Head
	list := make([]LayerInfo, 0, len(head.Layers))
	shape := p.net.Model.Base.OutShape()
	for i, layer := range head.Layers {
		info := LayerInfo{Index: i, Desc: layer.ToString(), Shape: fmt.Sprint(shape)}
		if pl, ok := layer.(nnet.ParamLayer); ok {
			info.Params = pl.ParamCount()
		}
		list = append(list, info)
		shape = layer.OutShape(shape)
	}
	return list
}

// ParamCount returns the total number of trainable weights in the head.
func (p *ViewPage) ParamCount() int {
	if p.net.Model == nil {
		return 0
	}
	return p.net.Model.Head.ParamCount()
}

// Classes returns the class names with their index.
func (p *ViewPage) Classes() []string {
	return p.net.Classes
}

// TrainSamples returns the number of samples in the training set.
func (p *ViewPage) TrainSamples() int {
	if p.net.trainImg == nil {
		return 0
	}
	return p.net.trainImg.Len()
}

// ValidSamples returns the number of samples in the validation set.
func (p *ViewPage) ValidSamples() int {
	if p.net.validImg == nil {
		return 0
	}
	return p.net.validImg.Len()
}
