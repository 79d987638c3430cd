package report

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// Summary builds the job summary markdown. The thumbnail is embedded as a
// data URI so it renders without uploading anything.
func Summary(lang, thumbnailPath, runURL string) (string, error) {
	p := Printer(lang)

	lines := []string{p.Sprintf(msgSummaryTitle), ""}

	if thumbnailPath != "" {
		data, err := os.ReadFile(thumbnailPath)
		if err != nil {
			return "", fmt.Errorf("failed to read thumbnail: %w", err)
		}
		lines = append(lines, "![thumbnail](data:image/png;base64,"+base64.StdEncoding.EncodeToString(data)+")")
	} else {
		lines = append(lines, p.Sprintf(msgSummaryNoThumb))
	}
	lines = append(lines, "")

	if runURL != "" {
		lines = append(lines, p.Sprintf(msgSummaryRun, runURL))
	}
	lines = append(lines, p.Sprintf(msgSummaryGet))

	return strings.Join(lines, "\n") + "\n", nil
}

// AppendSummary writes the job summary to the file named by
// GITHUB_STEP_SUMMARY. An empty summaryPath is a no-op.
func AppendSummary(summaryPath, lang, thumbnailPath, runURL string) error {
	if summaryPath == "" {
		return nil
	}
	md, err := Summary(lang, thumbnailPath, runURL)
	if err != nil {
		return err
	}
	return appendFile(summaryPath, md)
}
