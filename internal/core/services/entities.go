package services

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
)

// Placeholder delimiters. Backends are told to copy ⟦n⟧ through unchanged.
const (
	placeholderOpen  = "⟦"
	placeholderClose = "⟧"
)

var (
	monthNames = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\p{Nd}{4}-\p{Nd}{1,2}-\p{Nd}{1,2}`),
		regexp.MustCompile(`\p{Nd}{1,2}[./-]\p{Nd}{1,2}[./-]\p{Nd}{2,4}`),
		regexp.MustCompile(`\p{Nd}{1,2}(?:st|nd|rd|th)?\s+` + monthNames + `\.?,?\s+\p{Nd}{4}`),
		regexp.MustCompile(monthNames + `\.?\s+\p{Nd}{1,2}(?:st|nd|rd|th)?,?\s+\p{Nd}{4}`),
	}

	numeralPattern = regexp.MustCompile(`\p{Nd}+(?:[.,]\p{Nd}+)*`)

	// Reference codes such as DOC-1892-001 or S.No-14.
	identifierPattern = regexp.MustCompile(`\p{Lu}{2,}(?:-\p{Nd}+)+`)

	// Runs of capitalised Latin words, e.g. "East India Company".
	capitalisedPattern = regexp.MustCompile(`\p{Lu}\p{Ll}+(?:\s+\p{Lu}\p{Ll}+)*`)

	placeholderPattern = regexp.MustCompile(placeholderOpen + `(\d+)` + placeholderClose)
)

// entitySpan is a protected byte range of the source text.
type entitySpan struct {
	start, end int
	class      domain.TokenClass
	// emit is what the placeholder is restored to.
	emit string
}

// entityProtector finds and masks the tokens a translation must carry through.
type entityProtector struct {
	classes   map[domain.TokenClass]bool
	gazetteer []domain.GazetteerEntry
}

func newEntityProtector(classes []domain.TokenClass, gazetteer []domain.GazetteerEntry) *entityProtector {
	set := make(map[domain.TokenClass]bool, len(classes))
	for _, c := range classes {
		set[c] = true
	}
	return &entityProtector{classes: set, gazetteer: gazetteer}
}

// find returns non-overlapping protected spans ordered by position. Where
// candidates overlap, the earliest and then the longest wins.
func (p *entityProtector) find(text string, source, target domain.Language) []entitySpan {
	var candidates []entitySpan
	add := func(class domain.TokenClass, locs [][]int) {
		for _, loc := range locs {
			candidates = append(candidates, entitySpan{
				start: loc[0], end: loc[1], class: class, emit: text[loc[0]:loc[1]],
			})
		}
	}

	if p.classes[domain.TokenProperNoun] {
		candidates = append(candidates, p.gazetteerSpans(text, source, target)...)
		add(domain.TokenProperNoun, identifierPattern.FindAllStringIndex(text, -1))
		if source == domain.LanguageEnglish {
			add(domain.TokenProperNoun, p.capitalisedSpans(text))
		}
	}
	if p.classes[domain.TokenDate] {
		for _, re := range datePatterns {
			add(domain.TokenDate, re.FindAllStringIndex(text, -1))
		}
	}
	if p.classes[domain.TokenNumeral] {
		add(domain.TokenNumeral, numeralPattern.FindAllStringIndex(text, -1))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].start != candidates[j].start {
			return candidates[i].start < candidates[j].start
		}
		return candidates[i].end > candidates[j].end
	})

	spans := make([]entitySpan, 0, len(candidates))
	end := 0
	for _, c := range candidates {
		if c.start < end {
			continue
		}
		spans = append(spans, c)
		end = c.end
	}
	return spans
}

// gazetteerSpans matches known names written in the source language. A
// name with a validated rendering for the target is emitted as that.
func (p *entityProtector) gazetteerSpans(text string, source, target domain.Language) []entitySpan {
	var spans []entitySpan
	for _, entry := range p.gazetteer {
		forms := []string{entry.Name}
		if tr := entry.Translations[source]; tr != "" && tr != entry.Name {
			forms = append(forms, tr)
		}
		for _, form := range forms {
			if form == "" {
				continue
			}
			for offset := 0; ; {
				i := strings.Index(text[offset:], form)
				if i < 0 {
					break
				}
				start := offset + i
				end := start + len(form)
				offset = end
				if !atWordBoundary(text, start, end) {
					continue
				}
				emit := text[start:end]
				if tr := entry.Translations[target]; tr != "" {
					emit = tr
				}
				spans = append(spans, entitySpan{start: start, end: end, class: domain.TokenProperNoun, emit: emit})
			}
		}
	}
	return spans
}

// capitalisedSpans returns runs of capitalised words. A run opening a
// sentence loses its first word.
func (p *entityProtector) capitalisedSpans(text string) [][]int {
	var out [][]int
	for _, loc := range capitalisedPattern.FindAllStringIndex(text, -1) {
		if !atWordBoundary(text, loc[0], loc[1]) {
			continue
		}
		start, end := loc[0], loc[1]
		if sentenceInitial(text, start) {
			// The opening word is capitalised anyway; keep the rest of the run.
			i := strings.IndexFunc(text[start:end], unicode.IsSpace)
			if i < 0 {
				continue
			}
			start += i + strings.IndexFunc(text[start+i:end], func(r rune) bool { return !unicode.IsSpace(r) })
		}
		out = append(out, []int{start, end})
	}
	return out
}

// protect replaces every span with a numbered placeholder.
func protect(text string, spans []entitySpan) string {
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for i, s := range spans {
		b.WriteString(text[last:s.start])
		b.WriteString(placeholder(i))
		last = s.end
	}
	b.WriteString(text[last:])
	return b.String()
}

// restore puts the protected tokens back. Placeholders the backend dropped
// are appended so no literal is lost; unknown placeholders are removed.
func restore(text string, spans []entitySpan) string {
	seen := make([]bool, len(spans))
	out := placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		n, err := strconv.Atoi(placeholderPattern.FindStringSubmatch(m)[1])
		if err != nil || n >= len(spans) {
			return ""
		}
		seen[n] = true
		return spans[n].emit
	})

	var missing []string
	for i, ok := range seen {
		if !ok {
			missing = append(missing, spans[i].emit)
		}
	}
	if len(missing) > 0 {
		out = strings.TrimRightFunc(out, unicode.IsSpace) + " " + strings.Join(missing, " ")
	}
	return strings.TrimSpace(out)
}

func placeholder(n int) string {
	return fmt.Sprintf("%s%d%s", placeholderOpen, n, placeholderClose)
}

// atWordBoundary reports whether text[start:end] is not glued to letters
// or digits on either side.
func atWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// sentenceInitial reports whether only whitespace, quotes or opening
// punctuation separate pos from the previous sentence end or the start.
func sentenceInitial(text string, pos int) bool {
	for i := pos; i > 0; {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		switch {
		case isSentenceEnd(r):
			return true
		case unicode.IsSpace(r) || strings.ContainsRune(`"'([“‘`, r):
			i -= size
		default:
			return false
		}
	}
	return true
}
