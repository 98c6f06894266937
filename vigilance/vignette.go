package vigilance

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/meteo-vigilance/meteofrance"
	"github.com/gabriel-vasile/mimetype"
)

const defaultVignetteName = "vignette"

// Vignette is the national vigilance map image.
type Vignette struct {
	Filename    string
	ContentType string
	Width       int
	Height      int
	Data        []byte
	// Path is set once the image has been written to disk.
	Path string
}

func newVignette(resp *meteofrance.Response) (*Vignette, error) {
	if len(resp.Body) == 0 {
		return nil, resp.PayloadError("empty image body")
	}
	detected := mimetype.Detect(resp.Body)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, resp.PayloadError(fmt.Sprintf("body is %s, not an image", detected.String()))
	}
	// Decode the whole image: a header-only read accepts truncated bodies.
	img, _, err := image.Decode(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, resp.PayloadError(fmt.Sprintf("corrupt %s image: %v", detected.String(), err))
	}
	bounds := img.Bounds()

	return &Vignette{
		Filename:    vignetteFilename(resp.Header.Get("Content-Disposition"), detected.Extension()),
		ContentType: detected.String(),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Data:        resp.Body,
	}, nil
}

// vignetteFilename takes the base name from Content-Disposition, falling back
// to a fixed name with the detected extension.
func vignetteFilename(disposition, ext string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			name := filepath.Base(filepath.Clean("/" + params["filename"]))
			if name != "" && name != "/" && name != "." {
				return name
			}
		}
	}
	return defaultVignetteName + ext
}

// Save writes the image to dir under its filename and records the path. The
// file is written to a temporary name first so readers never see a partial image.
func (v *Vignette) Save(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("save vignette: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("save vignette: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vignette-*")
	if err != nil {
		return "", fmt.Errorf("save vignette: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(v.Data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return "", fmt.Errorf("save vignette: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("save vignette: %w", err)
	}

	path := filepath.Join(dir, v.Filename)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("save vignette: %w", err)
	}
	v.Path = path
	return path, nil
}
