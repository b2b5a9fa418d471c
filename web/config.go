package web

import (
	"fmt"
	"net/http"
)

// ConfigPage holds the handler state to view and update the network config.
type ConfigPage struct {
	*Templates
	Fields  []Field
	Layers  []Layer
	Flashes []string
	net     *Network
}

type Field struct {
	Name  string
	Value string
	Error string
}

type Layer struct {
	Index int
	Desc  string
}

// NewConfigPage creates the base data for the config form handlers.
func NewConfigPage(t *Templates, net *Network) *ConfigPage {
	p := &ConfigPage{net: net}
	p.Templates = t.Select("/config")
	p.AddOption(Link{Name: "save", Url: "/config/save"})
	p.refresh()
	return p
}

func (p *ConfigPage) refresh() {
	conf := p.net.Conf
	p.Fields = p.Fields[:0]
	for _, name := range conf.Fields() {
		p.Fields = append(p.Fields, Field{Name: name, Value: fmt.Sprint(conf.Get(name))})
	}
	p.Layers = p.Layers[:0]
	for i, layer := range conf.Layers {
		p.Layers = append(p.Layers, Layer{Index: i, Desc: layer.String()})
	}
}

// Base is the handler for the config template.
func (p *ConfigPage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		p.refresh()
		p.Flashes = p.Templates.Flashes(w, r)
		if err := p.ExecuteTemplate(w, "config", p); err != nil {
			logError(w, err)
		}
	}
}

// Save is the handler for the config form save action: updated values are
// applied and the model is rebuilt with the new settings.
func (p *ConfigPage) Save() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		if p.net.Running() {
			p.SetFlash(w, r, "cannot update config while training")
			http.Redirect(w, r, "/config", http.StatusFound)
			return
		}
		conf := p.net.Conf
		haveErrors := false
		var err error
		for i, fld := range p.Fields {
			val := r.FormValue(fld.Name)
			p.Fields[i].Error = ""
			if val == "" || val == fld.Value {
				continue
			}
			if conf, err = conf.SetString(fld.Name, val); err != nil {
				p.Fields[i].Error = err.Error()
				haveErrors = true
			}
		}
		if haveErrors {
			if err := p.ExecuteTemplate(w, "config", p); err != nil {
				logError(w, err)
			}
			return
		}
		p.net.Conf = conf
		if err := p.net.Init(); err != nil {
			logError(w, err)
			return
		}
		p.SetFlash(w, r, "config updated")
		http.Redirect(w, r, "/config", http.StatusFound)
	}
}
