// Package uploads stores product images on local disk and serves them back
// under a public /uploads prefix.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxFileSize caps a single uploaded image at 5 MB.
	MaxFileSize = 5 << 20

	PublicPrefix = "/uploads"
)

var (
	ErrTooLarge = errors.New("file exceeds upload size limit")
	ErrBadPath  = errors.New("path is not an upload path")

	extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)
)

// Dir is an upload directory. Stored files get generated names so a crafted
// original filename can never escape the directory or collide.
type Dir struct {
	root string
}

// New creates the directory if needed. A failure here is fatal at startup.
func New(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Root() string { return d.root }

// Save writes one multipart file and returns its public relative path, e.g.
// "/uploads/5f0c....jpg".
func (d *Dir) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxFileSize {
		return "", ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + safeExt(fh.Filename)
	dst, err := os.Create(filepath.Join(d.root, name))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, io.LimitReader(src, MaxFileSize)); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}

	return PublicPrefix + "/" + name, nil
}

// Remove deletes the file behind a public path previously returned by Save.
// Absent files are not an error.
func (d *Dir) Remove(publicPath string) error {
	if !strings.HasPrefix(publicPath, PublicPrefix+"/") {
		return ErrBadPath
	}

	name := path.Base(publicPath)
	if name == "." || name == ".." || name == "/" {
		return ErrBadPath
	}

	err := os.Remove(filepath.Join(d.root, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Handler serves the stored files; mount it at PublicPrefix.
func (d *Dir) Handler() http.Handler {
	return http.StripPrefix(PublicPrefix+"/", http.FileServer(http.Dir(d.root)))
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !extPattern.MatchString(ext) {
		return ""
	}
	return ext
}
