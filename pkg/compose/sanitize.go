package compose

import (
	"fmt"
	"strings"
	"time"
)

// Characters that are syntactically significant to the ffmpeg filter
// mini-language. Separators become a space so words stay apart, quotes
// and backslashes are dropped entirely.
var sanitizer = strings.NewReplacer(
	"\n", " ",
	"\r", " ",
	":", " ",
	";", " ",
	",", " ",
	"'", "",
	"\"", "",
	"\\", "",
)

// Sanitize makes text safe to embed in a filter specification. The
// relative order of all surviving characters is preserved.
func Sanitize(s string) string {
	return sanitizer.Replace(s)
}

// topicOf returns the part of a commentary before its first colon,
// which is used as the byline and in the derived headline.
func topicOf(commentary string) string {
	topic, _, _ := strings.Cut(commentary, ":")
	return strings.TrimSpace(topic)
}

// daysOld parses a strict YYYY-MM-DD release date and returns the day
// count between it and now.
func daysOld(release string, now time.Time) (int, bool) {
	t, err := time.Parse("2006-01-02", release)
	if err != nil {
		return 0, false
	}
	return int(now.Sub(t).Hours() / 24), true
}

// headline synthesizes the age sentence shown below the byline. An
// unparseable release date degrades to a neutral phrase instead of
// failing the render.
func headline(release, topic string, now time.Time) string {
	if topic == "" {
		topic = "another era"
	}
	days, ok := daysOld(release, now)
	if !ok {
		return fmt.Sprintf("This golden oldie takes us back closer in history to %s!", topic)
	}
	return fmt.Sprintf("This song is %d days old today and so ancient its release was closer in history to %s!", days, topic)
}
