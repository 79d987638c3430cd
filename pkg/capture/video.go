package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"
)

// recordedVideo matches the files Chromium writes into a recording dir.
var recordedVideo = glob.MustCompile("*.{webm,WEBM}")

// findVideo returns the most recently modified non-empty recording in dir
// written at or after since, or "" when there is none.
func findVideo(dir string, since time.Time) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to scan video directory: %w", err)
	}

	var (
		newest     string
		newestTime int64
	)
	for _, entry := range entries {
		if entry.IsDir() || !recordedVideo.Match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() == 0 || info.ModTime().Before(since) {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestTime {
			newest = filepath.Join(dir, entry.Name())
			newestTime = mod
		}
	}
	return newest, nil
}

func nonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
