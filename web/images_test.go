package web

import (
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/vicky722/headstart/img"
	"github.com/vicky722/headstart/nnet"
)

// grayData builds a one class set of size x size images with every pixel set to val.
func grayData(size, count int, val float32) *img.Data {
	images := make([]*img.Image, count)
	labels := make([]int32, count)
	for i := range images {
		images[i] = img.NewGray(size, size)
		pix := images[i].Pixels(0)
		for j := range pix {
			pix[j] = val
		}
	}
	return img.NewData([]string{"shape"}, labels, images)
}

func testNetwork(size int) *Network {
	conf := nnet.Config{ImageSize: size}
	return &Network{
		Conf:     conf,
		Classes:  []string{"shape"},
		trainImg: grayData(size, 4, 1),
		validImg: grayData(size, 4, 0),
	}
}

func imageRouter(p *ImagePage) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/images", p.Base())
	r.HandleFunc("/images/{dset:(?:train|valid)}", p.Base())
	r.HandleFunc("/images/{opt:(?:all|errors|prev|next)}", p.Base())
	r.HandleFunc("/img/{dset}/{id:[0-9]+}", p.Image())
	return r
}

func serveGray(t *testing.T, r *mux.Router, url string) uint8 {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", url, nil))
	if w.Code != http.StatusOK {
		t.Fatal("get", url, ": status", w.Code)
	}
	m, err := png.Decode(w.Body)
	if err != nil {
		t.Fatal("get", url, ":", err)
	}
	return color.GrayModel.Convert(m.At(0, 0)).(color.Gray).Y
}

func TestImageDset(t *testing.T) {
	tmpl, err := NewTemplates()
	if err != nil {
		t.Fatal(err)
	}
	p := NewImagePage(tmpl, testNetwork(8), 1, 2, 2)
	r := imageRouter(p)
	// the dset route var selects the set, not the last page selection
	p.Dset = "valid"
	if y := serveGray(t, r, "/img/train/0"); y != 255 {
		t.Error("train image: got gray", y, "expect 255")
	}
	if y := serveGray(t, r, "/img/valid/0"); y != 0 {
		t.Error("valid image: got gray", y, "expect 0")
	}
	p.Dset = "train"
	if y := serveGray(t, r, "/img/valid/0"); y != 0 {
		t.Error("valid image: got gray", y, "expect 0")
	}
}

func TestImagePagePrev(t *testing.T) {
	tmpl, err := NewTemplates()
	if err != nil {
		t.Fatal(err)
	}
	p := NewImagePage(tmpl, testNetwork(8), 1, 2, 2)
	if p.Pages < 1 {
		t.Error("initial pages: got", p.Pages)
	}
	r := imageRouter(p)
	// paging commands before the first page render must not break the page number
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/images/prev", nil))
	if w.Code != http.StatusOK {
		t.Error("status: got", w.Code, "expect 200")
	}
	if p.Page < 1 {
		t.Error("page after prev: got", p.Page)
	}
}
