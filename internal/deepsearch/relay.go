package deepsearch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/crystaldolphin/deepsearch/internal/shared/stringutils"
)

const (
	maxBodyBytes      = 16 << 20
	maxStreamLineSize = 8 << 20
)

// Source is one URL surfaced by DeepSearch.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Usage is the token accounting reported with the final chunk.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Result is the condensed payload handed back to the host.
type Result struct {
	Query   string   `json:"query"`
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// messageContent accepts either a plain string or an object with a text field.
type messageContent string

func (m *messageContent) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = messageContent(s)
		return nil
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		*m = ""
		return nil
	}
	*m = messageContent(obj.Text)
	return nil
}

type urlCitation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type annotation struct {
	Type        string      `json:"type"`
	URLCitation urlCitation `json:"url_citation"`
}

type chunkMessage struct {
	Role        string         `json:"role"`
	Type        string         `json:"type"`
	Content     messageContent `json:"content"`
	Annotations []annotation   `json:"annotations"`
}

type chunkChoice struct {
	Delta   *chunkMessage `json:"delta"`
	Message *chunkMessage `json:"message"`
	Text    string        `json:"text"`
}

// chunk is either a full completion or one streamed delta.
type chunk struct {
	Choices     []chunkChoice `json:"choices"`
	VisitedURLs []string      `json:"visitedURLs"`
	ReadURLs    []string      `json:"readURLs"`
	Usage       *Usage        `json:"usage"`
}

// assembler accumulates text and URLs from one or more chunks.
type assembler struct {
	maxURLs     int
	content     strings.Builder
	annotations []Source
	read        []string
	visited     []string
	usage       *Usage
}

func newAssembler(maxURLs int) *assembler {
	return &assembler{maxURLs: maxURLs}
}

func (a *assembler) addText(s string) {
	a.content.WriteString(s)
}

// addLine appends a non-JSON stream line, one line per entry.
func (a *assembler) addLine(s string) {
	if a.content.Len() > 0 {
		a.content.WriteByte('\n')
	}
	a.content.WriteString(s)
}

// addChunk records text and URLs from c. Reasoning ("think") deltas are
// forwarded to the host but kept out of the answer.
func (a *assembler) addChunk(c *chunk) {
	for _, ch := range c.Choices {
		switch {
		case ch.Delta != nil:
			if ch.Delta.Type != "think" {
				a.addText(string(ch.Delta.Content))
			}
			a.addAnnotations(ch.Delta.Annotations)
		case ch.Message != nil:
			a.addText(string(ch.Message.Content))
			a.addAnnotations(ch.Message.Annotations)
		default:
			a.addText(ch.Text)
		}
	}
	a.read = append(a.read, c.ReadURLs...)
	a.visited = append(a.visited, c.VisitedURLs...)
	if c.Usage != nil {
		a.usage = c.Usage
	}
}

func (a *assembler) addAnnotations(anns []annotation) {
	for _, an := range anns {
		if an.URLCitation.URL == "" {
			continue
		}
		a.annotations = append(a.annotations, Source{URL: an.URLCitation.URL, Title: an.URLCitation.Title})
	}
}

// sources merges cited, read and visited URLs in that order, dropping
// duplicates and stopping at maxURLs.
func (a *assembler) sources() []Source {
	seen := make(map[string]bool)
	var out []Source
	add := func(s Source) bool {
		s.URL = strings.TrimSpace(s.URL)
		if s.URL == "" || seen[s.URL] {
			return true
		}
		if len(out) >= a.maxURLs {
			return false
		}
		seen[s.URL] = true
		out = append(out, s)
		return true
	}
	for _, s := range a.annotations {
		if !add(s) {
			return out
		}
	}
	for _, u := range a.read {
		if !add(Source{URL: u}) {
			return out
		}
	}
	for _, u := range a.visited {
		if !add(Source{URL: u}) {
			return out
		}
	}
	return out
}

// result builds the final Result. Inline <think> blocks are removed from the
// assembled text, so tags split across deltas are caught too.
func (a *assembler) result(query string) Result {
	return Result{
		Query:   query,
		Content: strings.TrimSpace(stringutils.StripThink(a.content.String())),
		Sources: a.sources(),
		Usage:   a.usage,
	}
}

// relayWhole reads a complete (non-streamed) response body.
func relayWhole(body io.Reader, query string, maxURLs int) (Result, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes+1))
	if err != nil {
		return Result{}, err
	}
	if len(raw) > maxBodyBytes {
		return Result{}, &Error{Kind: KindRemote, Message: fmt.Sprintf("response too large (over %d bytes)", maxBodyBytes)}
	}
	asm := newAssembler(maxURLs)

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		asm.addLine(strings.TrimSpace(string(raw)))
		return asm.result(query), nil
	}

	if text, ok := fallbackText(v); ok {
		asm.addText(text)
		return asm.result(query), nil
	}

	var c chunk
	_ = json.Unmarshal(raw, &c)
	asm.addChunk(&c)
	res := asm.result(query)
	if res.Content == "" {
		if m, ok := v.(map[string]any); ok {
			slog.Debug("deepsearch: no readable content in response", "keys", sortedKeys(m))
			truncateURLFields(m, maxURLs)
		}
		pretty, _ := json.MarshalIndent(v, "", "  ")
		res.Content = string(pretty)
	}
	return res, nil
}

// relayStream reads SSE or newline-delimited JSON, emitting every parsed
// line to em as a stream event, and returns the assembled result.
func relayStream(ctx context.Context, body io.Reader, query string, maxURLs int, em Emitter) (Result, error) {
	asm := newAssembler(maxURLs)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLineSize)

	for scanner.Scan() {
		line, ok := streamPayload(scanner.Text())
		if !ok {
			continue
		}

		var data any
		if err := json.Unmarshal([]byte(line), &data); err != nil {
			asm.addLine(line)
			data = map[string]any{"raw": line}
		} else {
			switch v := data.(type) {
			case string:
				asm.addText(v)
			case map[string]any:
				if text, ok := fallbackText(v); ok {
					asm.addText(text)
				} else {
					var c chunk
					_ = json.Unmarshal([]byte(line), &c)
					asm.addChunk(&c)
				}
				truncateURLFields(v, maxURLs)
			}
		}

		emit(ctx, em, Event{Type: EventStream, Data: data})
	}
	if err := scanner.Err(); err != nil {
		return Result{}, err
	}
	return asm.result(query), nil
}

// streamPayload strips SSE framing from one line. It reports false for
// blank lines, SSE comments and non-data fields, and end-of-stream markers.
func streamPayload(raw string) (string, bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, ":") {
		return "", false
	}
	if strings.HasPrefix(line, "data:") {
		line = strings.TrimSpace(line[len("data:"):])
	} else {
		for _, field := range []string{"event:", "id:", "retry:"} {
			if strings.HasPrefix(line, field) {
				return "", false
			}
		}
	}
	if line == "" || line == "[DONE]" || line == "DONE" {
		return "", false
	}
	return line, true
}

// fallbackText handles payloads that are not completion-shaped: a bare
// string, or an object carrying its text under a well-known key.
func fallbackText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case map[string]any:
		if _, ok := t["choices"]; ok {
			return "", false
		}
		for _, key := range []string{"content", "text", "message", "raw"} {
			if s, ok := t[key].(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// truncateURLFields caps every URL list in a forwarded chunk at n entries.
func truncateURLFields(m map[string]any, n int) {
	for _, key := range []string{"visitedURLs", "readURLs"} {
		if list, ok := m[key].([]any); ok && len(list) > n {
			m[key] = list[:n]
		}
	}
	choices, _ := m["choices"].([]any)
	for _, c := range choices {
		choice, ok := c.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range []string{"delta", "message"} {
			msg, ok := choice[key].(map[string]any)
			if !ok {
				continue
			}
			if anns, ok := msg["annotations"].([]any); ok && len(anns) > n {
				msg["annotations"] = anns[:n]
			}
		}
	}
}

// sortedKeys is used for stable log output of unknown payloads.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
