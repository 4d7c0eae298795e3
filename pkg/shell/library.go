package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/agileandy/bbcbasic/pkg/store"
)

// Entry describes a saved program for CAT.
type Entry struct {
	Name     string
	Size     int64
	Modified time.Time
}

// Library is where SAVE, LOAD, CAT and DELETE keep programs.
type Library interface {
	Save(ctx context.Context, name, source string) error
	Load(ctx context.Context, name string) (string, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, name string) error
}

// ErrNoProgram is returned when a named program does not exist.
var ErrNoProgram = errors.New("File not found")

// DirLibrary keeps programs as .bas files in a directory.
type DirLibrary struct {
	dir string
}

// NewDirLibrary returns a library rooted at dir.
func NewDirLibrary(dir string) *DirLibrary {
	return &DirLibrary{dir: dir}
}

func (d *DirLibrary) path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("Bad name %q", name)
	}
	if filepath.Ext(name) == "" {
		name += ".bas"
	}
	return filepath.Join(d.dir, name), nil
}

func (d *DirLibrary) Save(ctx context.Context, name, source string) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(source), 0o644)
}

func (d *DirLibrary) Load(ctx context.Context, name string) (string, error) {
	path, err := d.path(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoProgram
	}
	return string(data), err
}

func (d *DirLibrary) List(ctx context.Context) ([]Entry, error) {
	files, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.EqualFold(filepath.Ext(f.Name()), ".bas") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:     strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (d *DirLibrary) Delete(ctx context.Context, name string) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNoProgram
	}
	return err
}

// StoreLibrary keeps one user's programs in the SQLite store.
type StoreLibrary struct {
	store *store.Store
	owner string
}

// NewStoreLibrary returns owner's view of s.
func NewStoreLibrary(s *store.Store, owner string) *StoreLibrary {
	return &StoreLibrary{store: s, owner: owner}
}

func (l *StoreLibrary) Save(ctx context.Context, name, source string) error {
	return l.store.SaveProgram(ctx, l.owner, name, source)
}

func (l *StoreLibrary) Load(ctx context.Context, name string) (string, error) {
	src, err := l.store.LoadProgram(ctx, l.owner, name)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoProgram
	}
	return src, err
}

func (l *StoreLibrary) List(ctx context.Context) ([]Entry, error) {
	infos, err := l.store.ListPrograms(ctx, l.owner)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(infos))
	for i, info := range infos {
		entries[i] = Entry{Name: info.Name, Size: info.Size, Modified: info.UpdatedAt}
	}
	return entries, nil
}

func (l *StoreLibrary) Delete(ctx context.Context, name string) error {
	err := l.store.DeleteProgram(ctx, l.owner, name)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoProgram
	}
	return err
}
