package dashboard

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Sound is the new-order alert asset, read from disk once per process.
type Sound struct {
	name        string
	contentType string
	data        []byte
	modTime     time.Time
}

func LoadSound(path string) (*Sound, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading alert sound: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &Sound{
		name:        filepath.Base(path),
		contentType: contentType,
		data:        data,
		modTime:     time.Now(),
	}, nil
}

// ServeHTTP serves the asset with range support so the page can seek it.
func (s *Sound) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", s.contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, s.name, s.modTime, bytes.NewReader(s.data))
}
