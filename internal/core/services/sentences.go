package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// isSentenceEnd reports whether r terminates a sentence. The danda closes
// Hindi sentences.
func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '।', '॥', '\n':
		return true
	}
	return false
}

// textSegment is a unit of text plus the whitespace that followed it.
type textSegment struct {
	text string
	sep  string
}

// splitSentences splits text after each terminator that is followed by
// whitespace or the end. Joining text and sep of every sentence gives the
// input back, minus leading whitespace.
func splitSentences(content string) []textSegment {
	content = strings.TrimLeftFunc(content, unicode.IsSpace)
	var out []textSegment
	start := 0
	for i := 0; i < len(content); {
		r, size := utf8.DecodeRuneInString(content[i:])
		i += size
		if !isSentenceEnd(r) {
			continue
		}
		if i < len(content) {
			next, _ := utf8.DecodeRuneInString(content[i:])
			if r != '\n' && !unicode.IsSpace(next) {
				continue
			}
		}
		end := i
		for i < len(content) {
			next, n := utf8.DecodeRuneInString(content[i:])
			if !unicode.IsSpace(next) {
				break
			}
			i += n
		}
		text := strings.TrimRightFunc(content[start:end], unicode.IsSpace)
		sep := content[len(text)+start : i]
		if text != "" {
			out = append(out, textSegment{text: text, sep: sep})
		} else if len(out) > 0 {
			out[len(out)-1].sep += sep
		}
		start = i
	}
	if rest := strings.TrimRightFunc(content[start:], unicode.IsSpace); rest != "" {
		out = append(out, textSegment{text: rest, sep: content[start+len(rest):]})
	}
	return out
}

// segmentText returns text as one unit when it fits in maxRunes, otherwise
// sentence-aligned units no longer than maxRunes. A sentence longer than
// maxRunes is broken at whitespace; a single word longer than that is kept
// whole.
func segmentText(text string, maxRunes int) []textSegment {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return []textSegment{{text: text}}
	}

	var pieces []textSegment
	for _, s := range splitSentences(text) {
		if utf8.RuneCountInString(s.text) <= maxRunes {
			pieces = append(pieces, s)
			continue
		}
		pieces = append(pieces, splitWords(s, maxRunes)...)
	}

	var out []textSegment
	var cur textSegment
	curRunes := 0
	for _, p := range pieces {
		n := utf8.RuneCountInString(p.text)
		if curRunes > 0 && curRunes+utf8.RuneCountInString(cur.sep)+n > maxRunes {
			out = append(out, cur)
			cur, curRunes = textSegment{}, 0
		}
		if curRunes > 0 {
			cur.text += cur.sep
			curRunes += utf8.RuneCountInString(cur.sep)
		}
		cur.text += p.text
		cur.sep = p.sep
		curRunes += n
	}
	if curRunes > 0 {
		out = append(out, cur)
	}
	return out
}

// splitWords breaks an over-long sentence at single spaces.
func splitWords(s textSegment, maxRunes int) []textSegment {
	words := strings.Fields(s.text)
	out := make([]textSegment, 0, len(words))
	for i, w := range words {
		sep := " "
		if i == len(words)-1 {
			sep = s.sep
		}
		out = append(out, textSegment{text: w, sep: sep})
	}
	return out
}

// joinSegments reassembles translated units with their separators.
func joinSegments(texts []string, segments []textSegment) string {
	var b strings.Builder
	for i, t := range texts {
		b.WriteString(t)
		if i < len(texts)-1 {
			sep := segments[i].sep
			if sep == "" {
				sep = " "
			}
			b.WriteString(sep)
		}
	}
	return b.String()
}
