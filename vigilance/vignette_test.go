package vigilance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVignetteFilename(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		want        string
	}{
		{"attachment", `attachment; filename="VIGNETTE_NATIONAL_J_500X500.png"`, "VIGNETTE_NATIONAL_J_500X500.png"},
		{"inline unquoted", `inline; filename=carte.png`, "carte.png"},
		{"missing header", "", "vignette.png"},
		{"no filename param", "attachment", "vignette.png"},
		{"path traversal", `attachment; filename="../../etc/passwd"`, "passwd"},
		{"malformed", `attachment; filename="unterminated`, "vignette.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vignetteFilename(tt.disposition, ".png"))
		})
	}
}

func TestVignette_Save(t *testing.T) {
	dir := t.TempDir()
	v := &Vignette{Filename: "map.png", Data: pngImage(t, 2, 2)}

	path, err := v.Save(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "map.png"), path)
	assert.Equal(t, path, v.Path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, v.Data, got)

	// Saving again replaces the previous image.
	v.Data = pngImage(t, 3, 3)
	_, err = v.Save(dir)
	require.NoError(t, err)
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, v.Data, got)
}

func TestVignette_SaveEmptyDir(t *testing.T) {
	_, err := (&Vignette{Filename: "map.png"}).Save("")
	assert.Error(t, err)
}

func TestViewerCommand(t *testing.T) {
	tests := []struct {
		goos     string
		wantName string
		wantArgs []string
	}{
		{"linux", "xdg-open", []string{"/tmp/v.png"}},
		{"freebsd", "xdg-open", []string{"/tmp/v.png"}},
		{"darwin", "open", []string{"/tmp/v.png"}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", "/tmp/v.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args := viewerCommand(tt.goos, "/tmp/v.png")
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
