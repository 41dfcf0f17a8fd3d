// Package web serves the post editor: filter preview, post submission and
// the timeline of stored posts.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rprtr258/timeline/internal/editor"
	"github.com/rprtr258/timeline/internal/post"
	filters "github.com/rprtr258/timeline/pkg"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pagesTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"step": func(r filters.Range) float64 {
		return (r.Max - r.Min) / 100
	},
}).ParseFS(templatesFS, "templates/*.html"))

type Config struct {
	MaxUploadBytes int64
	PreviewSide    int
}

type Server struct {
	filterer *filters.Filterer
	posts    *post.Store
	logger   *slog.Logger
	cfg      Config
}

func New(f *filters.Filterer, posts *post.Store, logger *slog.Logger, cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		filterer: f,
		posts:    posts,
		logger:   logger,
		cfg:      cfg,
	}
}

type segment struct {
	Name     string
	Title    string
	Selected bool
}

type editorPageData struct {
	Message  string
	Filters  []segment
	Selected filters.Kind
	Controls [editor.Slots]editor.Control
}

type lastsPageData struct {
	Posts []post.Post
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pagesTemplates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("rendering template", "name", name, "err", err)
	}
}

func (s *Server) notFound(w http.ResponseWriter) {
	s.render(w, http.StatusNotFound, "404.html", nil)
}

func (s *Server) renderEditor(w http.ResponseWriter, status int, e *editor.Editor, message string) {
	data := editorPageData{
		Message:  message,
		Selected: e.Selected(),
		Controls: e.Controls(),
	}
	for _, k := range filters.Kinds() {
		data.Filters = append(data.Filters, segment{k.String(), k.Title(), k == e.Selected()})
	}
	s.render(w, status, "index.html", data)
}

type formError struct {
	err error
}

func (e formError) Error() string { return e.err.Error() }
func (e formError) Unwrap() error { return e.err }

func statusFor(err error) int {
	var fe formError
	switch {
	case errors.As(err, &fe),
		errors.Is(err, filters.ErrDecodeFailed),
		errors.Is(err, post.ErrIncomplete):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) newEditor() *editor.Editor {
	return editor.New(s.filterer, editor.WithPreviewSide(s.cfg.PreviewSide))
}

// editorFromForm replays the submitted form on a fresh editor: filter
// selection, slider moves and finally the picked image.
func (s *Server) editorFromForm(r *http.Request) (*editor.Editor, error) {
	e := s.newEditor()
	if name := r.FormValue("filter"); name != "" {
		kind, err := filters.ParseKind(name)
		if err != nil {
			return e, formError{err}
		}
		if err := e.Select(kind); err != nil {
			return e, formError{err}
		}
	}
	for i, c := range e.Controls() {
		if c.SliderHidden {
			continue
		}
		key := "slider" + strconv.Itoa(i+1)
		raw := r.FormValue(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return e, formError{fmt.Errorf("error parsing parameter %q: %w", key, err)}
		}
		if _, err := e.SetSlider(i, v); err != nil {
			return e, formError{err}
		}
	}

	file, _, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return e, nil
	case err != nil:
		return e, formError{err}
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return e, formError{err}
	}
	return e, e.SetImage(data)
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return formError{err}
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.notFound(w)
		return
	}
	e := s.newEditor()
	if name := r.URL.Query().Get("filter"); name != "" {
		kind, err := filters.ParseKind(name)
		if err != nil {
			s.renderEditor(w, http.StatusBadRequest, e, err.Error())
			return
		}
		e.Select(kind)
	}
	s.renderEditor(w, http.StatusOK, e, "")
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.parseForm(w, r); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	e, err := s.editorFromForm(r)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if e.Preview() == nil {
		http.Error(w, "'image' is not provided", http.StatusBadRequest)
		return
	}
	data, err := filters.EncodeBytes(e.Preview(), s.filterer.Format())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/"+strings.ToLower(s.filterer.Format().String()))
	w.Write(data)
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := s.parseForm(w, r); err != nil {
		s.renderEditor(w, statusFor(err), s.newEditor(), err.Error())
		return
	}
	e, err := s.editorFromForm(r)
	if err != nil {
		s.renderEditor(w, statusFor(err), e, fmt.Sprintf("Error occured:\n%s", err))
		return
	}
	d, err := e.Draft(r.FormValue("title"))
	if err != nil {
		s.renderEditor(w, statusFor(err), e, err.Error())
		return
	}
	p, err := s.posts.Create(r.Context(), d)
	if err != nil {
		s.logger.Error("creating post", "err", err)
		s.renderEditor(w, statusFor(err), e, fmt.Sprintf("Error occured:\n%s", err))
		return
	}
	s.logger.Info("post created", "id", p.ID, "filter", p.Filter)
	http.Redirect(w, r, "/lasts", http.StatusSeeOther)
}

func (s *Server) handleLasts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.List(r.Context())
	if err != nil {
		s.logger.Error("reading posts", "err", err)
		http.Error(w, "can't read posts", http.StatusInternalServerError)
		return
	}
	s.render(w, http.StatusOK, "lasts.html", lastsPageData{posts})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"url", r.URL.String(),
			"status", rec.status,
			"took", time.Since(start),
		)
	})
}

// postImages lets through only the stored post images, hiding metadata and
// the directory listing.
func (s *Server) postImages(files http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		if strings.ContainsAny(name, `/\`) || !strings.HasSuffix(name, ".post.png") {
			s.notFound(w)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/img/", http.StripPrefix("/img/", s.postImages(http.FileServer(http.Dir(s.posts.Dir())))))
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/preview", s.handlePreview)
	mux.HandleFunc("/posts", s.handlePosts)
	mux.HandleFunc("/lasts", s.handleLasts)
	return s.logRequests(mux)
}
