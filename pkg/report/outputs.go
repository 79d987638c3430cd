package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Step output names.
const (
	OutputVideo      = "video_path"
	OutputGIF        = "gif_path"
	OutputThumbnail  = "thumbnail_path"
	OutputCommentURL = "comment_url"
)

// OutputWriter appends step outputs to the file named by GITHUB_OUTPUT.
// With an empty path every write is a no-op.
type OutputWriter struct {
	path string
}

// NewOutputWriter creates a writer for path.
func NewOutputWriter(path string) *OutputWriter {
	return &OutputWriter{path: path}
}

// Set records name=value using the multi-line heredoc form.
func (w *OutputWriter) Set(name, value string) error {
	if w == nil || w.path == "" {
		return nil
	}
	return appendFile(w.path, heredoc(name, value))
}

func heredoc(name, value string) string {
	delim := "EOF"
	for _, line := range strings.Split(value, "\n") {
		if line == delim {
			delim = "ghadelimiter_" + uuid.NewString()
			break
		}
	}
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delim, value, delim)
}

func appendFile(path, text string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
