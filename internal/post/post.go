// Package post stores submitted photo posts in a directory: the filtered
// image as <id>.post.png next to <id>.yaml metadata.
package post

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	filters "github.com/rprtr258/timeline/pkg"
)

var (
	ErrIncomplete = errors.New("make sure that you add a photo and a caption before posting")
	ErrNotFound   = errors.New("post not found")
)

const idLayout = "2006-01-02-15-04-05"

type Post struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Filter    string    `yaml:"filter,omitempty"`
	Params    []float64 `yaml:"params,omitempty"`
	Ratio     float64   `yaml:"ratio"`
	ImageFile string    `yaml:"image"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Draft is a post that was not stored yet. Image is the already filtered picture.
type Draft struct {
	Title  string
	Image  image.Image
	Params filters.Params
}

func (d Draft) Validate() error {
	if d.Image == nil || d.Image.Bounds().Empty() || strings.TrimSpace(d.Title) == "" {
		return ErrIncomplete
	}
	return nil
}

// Ratio is height over width, the value the timeline uses to size the post.
func Ratio(im image.Image) float64 {
	if im == nil || im.Bounds().Dx() == 0 {
		return 1
	}
	return float64(im.Bounds().Dy()) / float64(im.Bounds().Dx())
}

type Store struct {
	dir       string
	now       func() time.Time
	writeFile func(string, []byte, os.FileMode) error
	mu        sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create posts dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now, writeFile: os.WriteFile}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) metaFilename(id string) string {
	return filepath.Join(s.dir, id+".yaml")
}

// newID derives the id from the creation time, suffixed when two posts are
// created within the same second.
func (s *Store) newID(t time.Time) string {
	base := t.Format(idLayout)
	id := base
	for i := 1; ; i++ {
		if _, err := os.Stat(s.metaFilename(id)); errors.Is(err, os.ErrNotExist) {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, i)
	}
}

// idSeq is the collision suffix of id, 0 for the first post of a second.
func idSeq(id string) int {
	if len(id) <= len(idLayout) || id[len(idLayout)] != '-' {
		return 0
	}
	n, err := strconv.Atoi(id[len(idLayout)+1:])
	if err != nil {
		return 0
	}
	return n
}

func (s *Store) Create(ctx context.Context, d Draft) (Post, error) {
	if err := ctx.Err(); err != nil {
		return Post{}, err
	}
	if err := d.Validate(); err != nil {
		return Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now()
	id := s.newID(createdAt)
	p := Post{
		ID:        id,
		Title:     strings.TrimSpace(d.Title),
		Ratio:     Ratio(d.Image),
		ImageFile: id + ".post.png",
		CreatedAt: createdAt,
	}
	if d.Params != nil {
		p.Filter = d.Params.Kind().String()
		p.Params = filters.Values(d.Params)
	}

	meta, err := yaml.Marshal(p)
	if err != nil {
		return Post{}, fmt.Errorf("marshal post: %w", err)
	}
	imageFilename := filepath.Join(s.dir, p.ImageFile)
	if err := filters.SaveImageFile(d.Image, imageFilename); err != nil {
		os.Remove(imageFilename)
		return Post{}, fmt.Errorf("save post image: %w", err)
	}
	if err := s.writeFile(s.metaFilename(id), meta, 0o644); err != nil {
		os.Remove(imageFilename)
		return Post{}, fmt.Errorf("write post: %w", err)
	}
	return p, nil
}

func (s *Store) read(filename string) (Post, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Post{}, err
	}
	var p Post
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Post{}, fmt.Errorf("parse %s: %w", filepath.Base(filename), err)
	}
	return p, nil
}

func (s *Store) Get(ctx context.Context, id string) (Post, error) {
	if err := ctx.Err(); err != nil {
		return Post{}, err
	}
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return Post{}, ErrNotFound
	}
	p, err := s.read(s.metaFilename(id))
	if errors.Is(err, os.ErrNotExist) {
		return Post{}, ErrNotFound
	}
	return p, err
}

// List returns all posts, newest first.
func (s *Store) List(ctx context.Context) ([]Post, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		p, err := s.read(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return idSeq(posts[i].ID) > idSeq(posts[j].ID)
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}
