package vigilance

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Displayer shows an image file to the user.
type Displayer interface {
	Display(ctx context.Context, path string) error
}

// SystemViewer opens files with the platform's default viewer.
type SystemViewer struct{}

// Display runs the viewer and waits for it to hand the file off.
func (SystemViewer) Display(ctx context.Context, path string) error {
	name, args := viewerCommand(runtime.GOOS, path)
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // path is a file this package wrote
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("open %s with %s: %w: %s", path, name, err, out)
	}
	return nil
}

func viewerCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}
