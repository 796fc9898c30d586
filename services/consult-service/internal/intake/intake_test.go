package intake

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func multipartFiles(t *testing.T, files map[string]struct {
	contentType string
	body        []byte
}) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, f := range files {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="documents"; filename="` + name + `"`}
		h["Content-Type"] = []string{f.contentType}
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart failed: %v", err)
		}
		if _, err := part.Write(f.body); err != nil {
			t.Fatalf("part write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("writer close failed: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, "/", &buf)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm failed: %v", err)
	}
	return req.MultipartForm.File["documents"]
}

func TestSave_AcceptsAllowedDocuments(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "documents"))
	files := multipartFiles(t, map[string]struct {
		contentType string
		body        []byte
	}{
		"statement.pdf": {"application/pdf", []byte("%PDF-1.4")},
		"summary.xlsx":  {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", []byte("xlsx")},
	})

	stored, err := store.Save(files, Documents)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(stored))
	}
	for _, d := range stored {
		if _, err := os.Stat(d.StoredPath); err != nil {
			t.Fatalf("stored file missing: %v", err)
		}
		if !strings.HasPrefix(d.StoredPath, store.Dir()) {
			t.Fatalf("stored outside category dir: %s", d.StoredPath)
		}
	}
}

func TestRemove_DeletesStoredFiles(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "documents"))
	files := multipartFiles(t, map[string]struct {
		contentType string
		body        []byte
	}{
		"statement.pdf": {"application/pdf", []byte("%PDF-1.4")},
	})

	stored, err := store.Save(files, Documents)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	store.Remove(stored)
	for _, d := range stored {
		if _, err := os.Stat(d.StoredPath); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("file should be gone after Remove: %v", err)
		}
	}
}

func TestSave_RejectsUnsupportedType(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "documents"))
	files := multipartFiles(t, map[string]struct {
		contentType string
		body        []byte
	}{
		"notes.txt": {"text/plain", []byte("hello")},
	})

	if _, err := store.Save(files, Documents); !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 0 {
		t.Fatalf("rejected upload must not persist files, found %d", len(entries))
	}
}

func TestSave_RejectsMismatchedContentType(t *testing.T) {
	// Extension alone is not enough; the declared content-type must also be
	// on the allow-list.
	store := NewStore(filepath.Join(t.TempDir(), "documents"))
	files := multipartFiles(t, map[string]struct {
		contentType string
		body        []byte
	}{
		"payload.pdf": {"application/x-msdownload", []byte("MZ")},
	})

	if _, err := store.Save(files, Documents); !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestSave_RejectsOversizedFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "documents"))
	files := multipartFiles(t, map[string]struct {
		contentType string
		body        []byte
	}{
		"big.pdf": {"application/pdf", bytes.Repeat([]byte("a"), MaxFileSize+1)},
	})

	if _, err := store.Save(files, Documents); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestSave_RejectsTooManyFiles(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "documents"))
	batch := map[string]struct {
		contentType string
		body        []byte
	}{}
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf", "f.pdf"} {
		batch[name] = struct {
			contentType string
			body        []byte
		}{"application/pdf", []byte("x")}
	}

	if _, err := store.Save(multipartFiles(t, batch), Documents); !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", err)
	}
}

func TestSave_ImagesProfile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "avatars"))
	files := multipartFiles(t, map[string]struct {
		contentType string
		body        []byte
	}{
		"avatar.png": {"image/png", []byte("png")},
	})

	if _, err := store.Save(files, Images); err != nil {
		t.Fatalf("Save failed for image profile: %v", err)
	}
	if _, err := store.Save(files, Documents); !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("image must be rejected by the documents profile, got %v", err)
	}
}
