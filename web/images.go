package web

import (
	"fmt"
	"image/png"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/vicky722/headstart/img"
)

// ImagePage holds the handler state to browse the loaded image sets with the
// actual and predicted class for each sample.
type ImagePage struct {
	*Templates
	Dset    string
	Page    int
	Pages   int
	Total   int
	Errors  bool
	Rows    []int
	Cols    []int
	Width   int
	Height  int
	Flashes []string
	net     *Network
}

// NewImagePage creates the base data for the image grid handlers. Images are
// shown scaled in a rows x cols grid per page.
func NewImagePage(t *Templates, net *Network, scale float64, rows, cols int) *ImagePage {
	p := &ImagePage{net: net, Page: 1, Pages: 1, Dset: "valid"}
	p.Templates = t.Select("/images")
	for _, name := range []string{"all", "errors", "prev", "next"} {
		p.AddOption(Link{Name: name, Url: "/images/" + name})
	}
	size := net.Conf.ImageSize
	p.Width = int(float64(size) * scale)
	p.Height = int(float64(size) * scale)
	p.Rows = seq(rows)
	p.Cols = seq(cols)
	return p
}

func (p *ImagePage) data() *img.Data {
	return p.dataFor(p.Dset)
}

func (p *ImagePage) dataFor(dset string) *img.Data {
	if dset == "train" {
		return p.net.trainImg
	}
	return p.net.validImg
}

// Base is the handler for the image grid page and the paging commands.
func (p *ImagePage) Base() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		vars := mux.Vars(r)
		if dset := vars["dset"]; dset != "" {
			p.Dset = dset
			p.Page = 1
		}
		switch vars["opt"] {
		case "all":
			p.Errors = false
			p.Page = 1
		case "errors":
			p.Errors = true
			p.Page = 1
		case "prev":
			p.Page = mod(p.Page-1, 1, p.Pages)
		case "next":
			p.Page = mod(p.Page+1, 1, p.Pages)
		}
		p.Total, p.Pages = p.pageCount()
		if p.Page < 1 || p.Page > p.Pages {
			p.Page = 1
		}
		p.Flashes = p.Templates.Flashes(w, r)
		if err := p.ExecuteTemplate(w, "images", p); err != nil {
			logError(w, err)
		}
	}
}

func (p *ImagePage) pageCount() (nimg, pages int) {
	perPage := len(p.Rows) * len(p.Cols)
	d := p.data()
	if d == nil || perPage == 0 {
		return 0, 1
	}
	for i := 0; i < d.Len(); i++ {
		if p.showImage(i) {
			nimg++
		}
	}
	pages = (nimg + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return nimg, pages
}

// showImage filters samples to just the prediction errors when the errors
// option is selected. Predictions only exist for the validation set.
func (p *ImagePage) showImage(i int) bool {
	if !p.Errors {
		return true
	}
	pred := p.predict(i)
	return pred >= 0 && pred != p.label(i)
}

// Index returns the sample index for the given grid position on the current
// page, or -1 past the end of the set.
func (p *ImagePage) Index(row, col int) int {
	perPage := len(p.Rows) * len(p.Cols)
	pos := (p.Page-1)*perPage + row*len(p.Cols) + col
	d := p.data()
	if d == nil {
		return -1
	}
	n := 0
	for i := 0; i < d.Len(); i++ {
		if p.showImage(i) {
			if n == pos {
				return i
			}
			n++
		}
	}
	return -1
}

func (p *ImagePage) label(i int) int {
	d := p.data()
	if d == nil || i < 0 || i >= len(d.Labels) {
		return -1
	}
	return int(d.Labels[i])
}

func (p *ImagePage) predict(i int) int {
	if p.Dset != "valid" || p.net.Epoch == 0 {
		return -1
	}
	pred := p.net.test.Pred
	if i < 0 || i >= len(pred) {
		return -1
	}
	return int(pred[i])
}

// Label returns the caption for sample i: the actual class, plus the predicted
// class when it differs.
func (p *ImagePage) Label(i int) string {
	classes := p.net.Classes
	actual := p.label(i)
	if actual < 0 || actual >= len(classes) {
		return ""
	}
	s := classes[actual]
	if pred := p.predict(i); pred >= 0 && pred != actual {
		s += " => " + classes[pred]
	}
	return s
}

// Image is the handler serving an individual sample as PNG.
func (p *ImagePage) Image() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p.net.Lock()
		defer p.net.Unlock()
		vars := mux.Vars(r)
		id, _ := strconv.Atoi(vars["id"])
		var m *img.Image
		if d := p.dataFor(vars["dset"]); d != nil && id >= 0 && id < d.Len() {
			m = d.Image(id)
		}
		if m == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, m); err != nil {
			logError(w, fmt.Errorf("error encoding image %d: %s", id, err))
		}
	}
}

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func mod(i, min, max int) int {
	if i < min {
		return max
	}
	if i > max {
		return min
	}
	return i
}
