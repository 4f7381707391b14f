package storage

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// ImageExt is the extension of every image the encoder writes.
const ImageExt = ".png"

// ImageDescriptor describes an image file found in a directory.
type ImageDescriptor struct {
	Path  string
	// Index is the sequence number parsed from a numeric file stem such as
	// "00042.png", or -1 when the stem is not a number.
	Index int64
}

// ImageIndex parses the sequence number of an image file name.
func ImageIndex(name string) (int64, bool) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	n, err := strconv.ParseUint(stem, 10, 63)
	if err != nil {
		return -1, false
	}
	return int64(n), true
}

// Storage abstracts the filesystem operations used by the encoder and decoder.
type Storage interface {
	Stat(name string) (os.FileInfo, error)
	Open(name string) (io.ReadCloser, error)
	// CreateExclusive creates name for writing and fails with os.ErrExist
	// if it is already present.
	CreateExclusive(name string) (io.WriteCloser, error)
	Mkdir(name string) error
	// ListImages returns the .png files directly under dir. Numbered images
	// come first in numeric order, then the rest sorted by name.
	ListImages(dir string) ([]ImageDescriptor, error)
}

// FsStorage implements Storage on an afero filesystem.
type FsStorage struct {
	fs afero.Fs
}

var _ Storage = (*FsStorage)(nil)

// New wraps an afero filesystem.
func New(fs afero.Fs) *FsStorage {
	return &FsStorage{fs: fs}
}

// NewOsStorage returns storage over the real filesystem.
func NewOsStorage() *FsStorage {
	return New(afero.NewOsFs())
}

// NewMemStorage returns an empty in-memory storage for tests.
func NewMemStorage() *FsStorage {
	return New(afero.NewMemMapFs())
}

// Fs exposes the underlying filesystem.
func (s *FsStorage) Fs() afero.Fs {
	return s.fs
}

func (s *FsStorage) Stat(name string) (os.FileInfo, error) {
	return s.fs.Stat(name)
}

func (s *FsStorage) Open(name string) (io.ReadCloser, error) {
	return s.fs.Open(name)
}

func (s *FsStorage) CreateExclusive(name string) (io.WriteCloser, error) {
	return s.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
}

func (s *FsStorage) Mkdir(name string) error {
	return s.fs.Mkdir(name, 0755)
}

func (s *FsStorage) ListImages(dir string) ([]ImageDescriptor, error) {
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, err
	}

	var images []ImageDescriptor
	for _, info := range infos {
		if info.IsDir() || !strings.EqualFold(filepath.Ext(info.Name()), ImageExt) {
			continue
		}
		index, _ := ImageIndex(info.Name())
		images = append(images, ImageDescriptor{
			Path:  filepath.Join(dir, info.Name()),
			Index: index,
		})
	}

	sort.Slice(images, func(i, j int) bool {
		a, b := images[i], images[j]
		switch {
		case a.Index >= 0 && b.Index >= 0 && a.Index != b.Index:
			return a.Index < b.Index
		case (a.Index >= 0) != (b.Index >= 0):
			return a.Index >= 0
		default:
			return a.Path < b.Path
		}
	})
	return images, nil
}

// Exists reports whether name is present.
func Exists(s Storage, name string) (bool, error) {
	_, err := s.Stat(name)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// IsDir reports whether name is an existing directory.
func IsDir(s Storage, name string) bool {
	info, err := s.Stat(name)
	return err == nil && info.IsDir()
}
