package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/isaiicatmat/pr-video-diff/pkg/config"
	"github.com/isaiicatmat/pr-video-diff/pkg/logging"
)

// ErrNotPullRequest is returned when the event payload carries no pull
// request.
var ErrNotPullRequest = errors.New("event is not a pull_request")

// Commander runs an external program and returns its combined output.
type Commander interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Commenter posts the run comment on the pull request with the gh CLI,
// which authenticates from GITHUB_TOKEN in the environment.
type Commenter struct {
	cmd Commander
	gh  string
	log *logging.Logger
}

// NewCommenter creates a commenter. An empty gh means "gh" on PATH.
func NewCommenter(cmd Commander, gh string, log *logging.Logger) *Commenter {
	if gh == "" {
		gh = "gh"
	}
	if log == nil {
		log = logging.Discard("comment")
	}
	return &Commenter{cmd: cmd, gh: gh, log: log}
}

// CommentBody renders the comment text for lang.
func CommentBody(lang, runURL string) string {
	p := Printer(lang)
	lines := []string{p.Sprintf(msgCommentReady), ""}
	if runURL != "" {
		lines = append(lines, p.Sprintf(msgCommentGet), "", runURL)
	} else {
		lines = append(lines, p.Sprintf(msgCommentNoRun))
	}
	lines = append(lines, "", p.Sprintf(msgCommentTip))
	return strings.Join(lines, "\n")
}

// PullRequestNumber reads pull_request.number from the event payload.
func PullRequestNumber(eventPath string) (int64, error) {
	if eventPath == "" {
		return 0, fmt.Errorf("GITHUB_EVENT_PATH not available")
	}
	data, err := os.ReadFile(eventPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read event payload: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return 0, fmt.Errorf("event payload is not valid JSON")
	}
	number := gjson.GetBytes(data, "pull_request.number")
	if !number.Exists() || number.Int() <= 0 {
		return 0, ErrNotPullRequest
	}
	return number.Int(), nil
}

// Post comments on the pull request that triggered the run and returns
// the comment URL.
func (c *Commenter) Post(ctx context.Context, gh config.GitHub, lang string) (string, error) {
	if gh.Token == "" {
		return "", fmt.Errorf("GITHUB_TOKEN not available")
	}
	if gh.Repository == "" {
		return "", fmt.Errorf("GITHUB_REPOSITORY not available")
	}
	number, err := PullRequestNumber(gh.EventPath)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("repos/%s/issues/%d/comments", gh.Repository, number)
	c.log.Infof("posting comment to %s", endpoint)

	out, err := c.cmd.Run(ctx, c.gh, "api", "--method", "POST", endpoint,
		"-f", "body="+CommentBody(lang, gh.RunURL()))
	if err != nil {
		return "", fmt.Errorf("gh api %s failed: %w: %s", endpoint, err, strings.TrimSpace(string(out)))
	}

	url := gjson.GetBytes(out, "html_url").String()
	if url == "" {
		c.log.Warnf("comment created but response had no html_url")
	}
	return url, nil
}
