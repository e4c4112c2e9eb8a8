package domain

import (
	"strings"
	"unicode"
)

// token is a word or a single punctuation mark, with the byte offsets of its
// position in the original text so extracted spans preserve the source
// spelling and spacing.
type token struct {
	text  string
	start int
	end   int
}

// tokenize splits text into word and punctuation tokens. Runs of letters and
// digits form one token; every other non-space rune is a token on its own.
// Alert templates use punctuation marks (":", "[", ".") as span boundaries,
// so they must never be glued to the words they follow.
func tokenize(text string) []token {
	var tokens []token
	wordStart := -1

	flush := func(end int) {
		if wordStart >= 0 {
			tokens = append(tokens, token{text: text[wordStart:end], start: wordStart, end: end})
			wordStart = -1
		}
	}

	for i, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if wordStart < 0 {
				wordStart = i
			}
		case unicode.IsSpace(r):
			flush(i)
		default:
			flush(i)
			tokens = append(tokens, token{text: string(r), start: i, end: i + len(string(r))})
		}
	}
	flush(len(text))
	return tokens
}

// findToken returns the index of the first token equal to want at or after
// start, or -1 if absent.
func findToken(tokens []token, want string, start int, caseInsensitive bool) int {
	if caseInsensitive {
		want = strings.ToLower(want)
	}
	for i := start; i < len(tokens); i++ {
		cur := tokens[i].text
		if caseInsensitive {
			cur = strings.ToLower(cur)
		}
		if cur == want {
			return i
		}
	}
	return -1
}

// spanText reconstructs the original substring covering tokens[from:to]
// (to exclusive) and trims surrounding whitespace.
func spanText(text string, tokens []token, from, to int) string {
	if from >= to {
		return ""
	}
	return strings.TrimSpace(text[tokens[from].start:tokens[to-1].end])
}

// spanBetweenTokens returns the text strictly between the first left token
// and the first right token after it. A missing right boundary defaults to
// end of text; a missing left boundary or an empty span yields "".
func spanBetweenTokens(text string, tokens []token, left, right string) string {
	li := findToken(tokens, left, 0, false)
	if li < 0 {
		return ""
	}
	ri := findToken(tokens, right, li+1, false)
	if ri < 0 {
		ri = len(tokens)
	}
	if ri-li <= 1 {
		return ""
	}
	return spanText(text, tokens, li+1, ri)
}

// spanAfterUntil returns the text after the cue token up to the until token.
// When follow is non-empty the cue must be trailed by that token somewhere
// after it, and the span starts after the follow token instead ("subsided at
// <LOC>"). A missing until boundary defaults to end of text.
func spanAfterUntil(text string, tokens []token, cue, until, follow string) string {
	ci := findToken(tokens, cue, 0, true)
	if ci < 0 {
		return ""
	}
	start := ci + 1
	if follow != "" {
		ai := findToken(tokens, follow, ci+1, true)
		if ai < 0 {
			return ""
		}
		start = ai + 1
	}
	ui := findToken(tokens, until, start, false)
	if ui < 0 {
		ui = len(tokens)
	}
	if ui-start <= 0 {
		return ""
	}
	return spanText(text, tokens, start, ui)
}

// spanBetweenKeywords is spanBetweenTokens with case-insensitive boundaries,
// for phrase-style cues like "over ... from". Unlike punctuation boundaries,
// a missing right keyword yields "" rather than running to end of text.
func spanBetweenKeywords(text string, tokens []token, left, right string) string {
	li := findToken(tokens, left, 0, true)
	if li < 0 {
		return ""
	}
	ri := findToken(tokens, right, li+1, true)
	if ri < 0 || ri-li <= 1 {
		return ""
	}
	return spanText(text, tokens, li+1, ri)
}

// textAfterBefore returns the raw substring between the first occurrence of
// after (searched case-insensitively from startPos) and the next occurrence
// of before, trimmed of surrounding whitespace and the punctuation that
// frames time fragments. Returns "" when either cue is missing.
func textAfterBefore(s, after, before string, startPos int) string {
	low := strings.ToLower(s)
	if startPos < 0 || startPos > len(s) {
		return ""
	}
	a := strings.Index(low[startPos:], strings.ToLower(after))
	if a < 0 {
		return ""
	}
	aEnd := startPos + a + len(after)
	b := strings.Index(low[aEnd:], strings.ToLower(before))
	if b < 0 {
		return ""
	}
	return strings.Trim(s[aEnd:aEnd+b], " :,[]()")
}
