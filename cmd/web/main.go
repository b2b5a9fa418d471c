package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vicky722/headstart/nnet"
	"github.com/vicky722/headstart/web"
)

const (
	scale = 1
	rows  = 4
	cols  = 8
)

func main() {
	log.SetFlags(0)
	conf := nnet.DefaultConfig()
	addr := flag.String("addr", ":8080", "listen address")
	model := flag.String("model", "", "load config from <model>.net")
	flag.StringVar(&conf.DataDir, "data", conf.DataDir, "image data directory")
	flag.StringVar(&conf.BaseModel, "base", conf.BaseModel, "base model onnx file or pool")
	flag.Parse()
	if *model != "" {
		var err error
		conf, err = nnet.LoadConfig(*model + ".net")
		nnet.CheckErr(err)
	}

	net, err := web.NewNetwork(conf)
	nnet.CheckErr(err)

	t, err := web.NewTemplates()
	nnet.CheckErr(err)
	t.AddMenuItem(web.Link{Name: "train", Url: "/train"})
	t.AddMenuItem(web.Link{Name: "images", Url: "/images"})
	t.AddMenuItem(web.Link{Name: "model", Url: "/view"})
	t.AddMenuItem(web.Link{Name: "config", Url: "/config"})

	trainPage := web.NewTrainPage(t.Clone(), net)
	imagePage := web.NewImagePage(t.Clone(), net, scale, rows, cols)
	viewPage := web.NewViewPage(t.Clone(), net)
	configPage := web.NewConfigPage(t.Clone(), net)

	r := mux.NewRouter()
	r.Use(web.NewAuthMiddleware().Middleware)
	r.Handle("/", http.RedirectHandler("/train", http.StatusFound))

	r.HandleFunc("/train", trainPage.Base())
	r.HandleFunc("/train/{cmd:(?:start|stop|continue)}", trainPage.Base())
	r.HandleFunc("/stats", trainPage.Stats())
	r.HandleFunc("/ws", trainPage.Websocket())
	r.HandleFunc("/plot/loss", trainPage.LossPlot())
	r.HandleFunc("/plot/error", trainPage.ErrorPlot())
	r.HandleFunc("/plot/confusion", trainPage.Confusion())

	r.HandleFunc("/images", imagePage.Base())
	r.HandleFunc("/images/{dset:(?:train|valid)}", imagePage.Base())
	r.HandleFunc("/images/{opt:(?:all|errors|prev|next)}", imagePage.Base())
	r.HandleFunc("/img/{dset}/{id:[0-9]+}", imagePage.Image())

	r.HandleFunc("/view", viewPage.Base())
	r.HandleFunc("/config", configPage.Base())
	r.HandleFunc("/config/save", configPage.Save()).Methods("POST")

	fmt.Println("serving web page at http://localhost" + *addr)
	nnet.CheckErr(http.ListenAndServe(*addr, r))
}
