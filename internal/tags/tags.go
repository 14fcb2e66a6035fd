// Package tags reads metadata from music files.
package tags

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Tag holds the metadata of a music file.
type Tag struct {
	Title  string
	Artist string
	Album  string
	Year   int
	Track  int
}

// Read reads tag metadata from a music file. Files without readable tags
// return an empty Tag, not an error: they still play under their file name.
func Read(path string) (Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tag{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Tag{}, nil
	}

	track, _ := m.Track()
	return Tag{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
		Year:   m.Year(),
		Track:  track,
	}, nil
}

// DisplayName derives a human-readable name from a file path, used when a
// file carries no title tag.
func DisplayName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
