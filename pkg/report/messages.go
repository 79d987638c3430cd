package report

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	msgSummaryTitle   = "## 🎬 PR Video Diff"
	msgSummaryRun     = "**Run:** %s"
	msgSummaryGet     = "Download the video/GIF from the run's **Artifacts**."
	msgCommentReady   = "🎬 **PR Video Diff** is ready."
	msgCommentGet     = "▶️ Download it from the **Artifacts** section of this run:"
	msgCommentTip     = "_Tip:_ the Job Summary also shows a thumbnail."
	msgCommentNoRun   = "▶️ Download it from the **Artifacts** section of the workflow run."
	msgSummaryNoThumb = "_No thumbnail was produced._"
)

var supportedTags = []language.Tag{
	language.English,
	language.Spanish,
}

var tagMatcher = language.NewMatcher(supportedTags)

var messages = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	es := map[string]string{
		msgSummaryTitle:   "## 🎬 PR Video Diff",
		msgSummaryRun:     "**Run:** %s",
		msgSummaryGet:     "Descarga el video/gif desde **Artifacts**.",
		msgCommentReady:   "🎬 **PR Video Diff** listo.",
		msgCommentGet:     "▶️ Descárgalo en la sección **Artifacts** de este run:",
		msgCommentTip:     "_Tip:_ También puedes ver un thumbnail en el Job Summary.",
		msgCommentNoRun:   "▶️ Descárgalo en la sección **Artifacts** del run.",
		msgSummaryNoThumb: "_No se generó thumbnail._",
	}
	for key, text := range es {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Spanish, key, text)
	}
	return b
}

// ResolveTag maps a lang input such as "es-MX" to a supported language.
// Unknown or malformed values resolve to English.
func ResolveTag(lang string) language.Tag {
	parsed, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return language.English
	}
	_, index, confidence := tagMatcher.Match(parsed)
	if confidence == language.No {
		return language.English
	}
	return supportedTags[index]
}

// Printer returns a printer for lang backed by the report messages.
func Printer(lang string) *message.Printer {
	return message.NewPrinter(ResolveTag(lang), message.Catalog(messages))
}
