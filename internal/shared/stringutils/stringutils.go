package stringutils

import "regexp"

var reThink = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Truncate shortens s to at most n bytes plus "..." when it was cut. Used to
// keep error bodies short in log lines.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// StripThink removes <think>...</think> reasoning blocks. The DeepSearch relay
// applies it to the fully assembled answer, so a block split across stream
// deltas is removed the same way as one inside a whole response.
func StripThink(s string) string {
	return reThink.ReplaceAllString(s, "")
}
