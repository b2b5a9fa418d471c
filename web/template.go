package web

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

//go:embed templates/*.html
var assetFS embed.FS

const sessionName = "headstart"

// Templates holds the parsed page templates, the main menu and the session
// store used for flash messages.
type Templates struct {
	*template.Template
	Menu    []Link
	Options []Link
	store   sessions.Store
}

type Link struct {
	Url      string
	Name     string
	Selected bool
}

// NewTemplates parses the embedded templates and initialises the main menu.
func NewTemplates() (*Templates, error) {
	t := &Templates{Menu: []Link{}, Options: []Link{}}
	var err error
	t.Template, err = template.ParseFS(assetFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	t.store = sessions.NewCookieStore(securecookie.GenerateRandomKey(32))
	return t, nil
}

func (t *Templates) Clone() *Templates {
	return &Templates{
		Template: t.Template,
		Menu:     append([]Link{}, t.Menu...),
		Options:  append([]Link{}, t.Options...),
		store:    t.store,
	}
}

func (t *Templates) Select(url string) *Templates {
	for i, key := range t.Menu {
		t.Menu[i].Selected = strings.HasPrefix(key.Url, url)
	}
	return t
}

func (t *Templates) AddMenuItem(l Link) *Templates {
	t.Menu = append(t.Menu, l)
	return t
}

func (t *Templates) AddOption(l Link) *Templates {
	t.Options = append(t.Options, l)
	return t
}

// SetFlash stores a message to show on the next page render.
func (t *Templates) SetFlash(w http.ResponseWriter, r *http.Request, msg string) {
	session, _ := t.store.Get(r, sessionName)
	session.AddFlash(msg)
	if err := session.Save(r, w); err != nil {
		log.Println("error saving session:", err)
	}
}

// Flashes returns and clears any pending flash messages.
func (t *Templates) Flashes(w http.ResponseWriter, r *http.Request) []string {
	session, _ := t.store.Get(r, sessionName)
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		log.Println("error saving session:", err)
	}
	msgs := make([]string, len(flashes))
	for i, f := range flashes {
		msgs[i] = fmt.Sprint(f)
	}
	return msgs
}

func logError(w http.ResponseWriter, err error) {
	log.Println(err)
	http.Error(w, fmt.Sprint(err), http.StatusInternalServerError)
}
