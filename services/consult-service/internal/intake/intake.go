package intake

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds size limit")
	ErrTooManyFiles        = errors.New("too many files")
)

const (
	MaxFiles    = 5
	MaxFileSize = 5 << 20 // 5 MB
)

// Profile pairs the extension and declared content-type allow-lists for one
// upload surface. Both lists must match for a file to be accepted.
type Profile struct {
	extensions   map[string]struct{}
	contentTypes map[string]struct{}
}

// Documents accepts the consultation document formats.
var Documents = Profile{
	extensions: set(".pdf", ".doc", ".docx", ".xls", ".xlsx"),
	contentTypes: set(
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	),
}

// Images accepts the avatar/profile image formats (separate upload surface).
var Images = Profile{
	extensions:   set(".jpg", ".jpeg", ".png"),
	contentTypes: set("image/jpeg", "image/png"),
}

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func (p Profile) allowed(filename, contentType string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := p.extensions[ext]; !ok {
		return false
	}
	// Content-Type may carry parameters ("application/pdf; name=x").
	mediaType := strings.TrimSpace(strings.ToLower(contentType))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	_, ok := p.contentTypes[mediaType]
	return ok
}

// Descriptor describes one stored upload.
type Descriptor struct {
	FileName   string    `json:"fileName"`
	StoredPath string    `json:"-"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Store writes accepted uploads into a per-category directory, created on
// first use.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Save validates and persists every file in the batch. The batch is
// all-or-nothing: a single rejected file fails the request and removes any
// file already written for it.
func (s *Store) Save(files []*multipart.FileHeader, profile Profile) ([]Descriptor, error) {
	if len(files) > MaxFiles {
		return nil, fmt.Errorf("%w: got %d, limit %d", ErrTooManyFiles, len(files), MaxFiles)
	}
	for _, fh := range files {
		if fh.Size > MaxFileSize {
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, fh.Filename)
		}
		if !profile.allowed(fh.Filename, fh.Header.Get("Content-Type")) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, fh.Filename)
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}

	var stored []Descriptor
	for _, fh := range files {
		desc, err := s.saveOne(fh)
		if err != nil {
			for _, d := range stored {
				_ = os.Remove(d.StoredPath)
			}
			return nil, err
		}
		stored = append(stored, desc)
	}
	return stored, nil
}

// Remove deletes previously stored files. Callers use it to honor the
// all-or-nothing contract when the booking the batch belongs to fails after
// intake.
func (s *Store) Remove(stored []Descriptor) {
	for _, d := range stored {
		_ = os.Remove(d.StoredPath)
	}
}

func (s *Store) saveOne(fh *multipart.FileHeader) (Descriptor, error) {
	src, err := fh.Open()
	if err != nil {
		return Descriptor{}, err
	}
	defer src.Close()

	name := storedName(fh.Filename)
	path := filepath.Join(s.dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return Descriptor{}, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, MaxFileSize+1)); err != nil {
		_ = os.Remove(path)
		return Descriptor{}, err
	}
	return Descriptor{
		FileName:   fh.Filename,
		StoredPath: path,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// storedName is timestamp + random suffix + original extension, which keeps
// stored names collision-resistant without trusting client filenames.
func storedName(original string) string {
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), strings.ToLower(filepath.Ext(original)))
}
