// Package audio captures microphone audio into playable assets and plays
// them back.
package audio

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultMimeType is used for recordings when no type is configured.
const DefaultMimeType = "audio/wav"

// Asset is a recorded, playable unit of audio. Its duration is not tracked.
type Asset struct {
	ID        string
	MimeType  string
	Data      []byte
	CreatedAt time.Time
}

// NewAsset wraps data in an Asset with a fresh ID.
func NewAsset(mimeType string, data []byte) *Asset {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return &Asset{
		ID:        ulid.Make().String(),
		MimeType:  mimeType,
		Data:      data,
		CreatedAt: time.Now(),
	}
}

// Valid reports whether the asset can be handed to a sink.
func (a *Asset) Valid() bool {
	return a != nil && len(a.Data) > 0
}

// Size returns the number of audio bytes.
func (a *Asset) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// Extension returns a file extension matching the asset's MIME type.
func (a *Asset) Extension() string {
	switch a.MimeType {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	}
	if exts, _ := mime.ExtensionsByType(a.MimeType); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// LoadFile reads an audio file into an Asset, guessing the MIME type from
// the extension.
func LoadFile(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sound file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("sound file %s is empty", path)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return NewAsset(mimeType, data), nil
}

// WriteFile saves the asset's bytes to path.
func (a *Asset) WriteFile(path string) error {
	if !a.Valid() {
		return fmt.Errorf("write sound file: empty asset")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sound directory: %w", err)
	}
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return fmt.Errorf("write sound file: %w", err)
	}
	return nil
}
