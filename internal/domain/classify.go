package domain

import (
	"strings"
	"time"
)

// alertRule pairs a trigger predicate with the field extraction for one
// alert template. Rules are evaluated in order and the first match wins, so
// precedence between overlapping cues is explicit in the table below.
type alertRule struct {
	event   string
	match   func(lower string) bool
	extract func(text string, tokens []token, anchor time.Time) ParsedAlert
}

// alertRules is the ordered rule chain. PUB channel alerts follow a small set
// of stereotyped templates distinguished by a stable prefix or substring cue;
// an ordered table is simpler and more auditable than a grammar, and a new
// template is a new row.
var alertRules = []alertRule{
	{
		event: EventFlashFloodRisk,
		match: func(lower string) bool { return strings.HasPrefix(lower, "[risk of flash floods]") },
		extract: func(text string, tokens []token, _ time.Time) ParsedAlert {
			// "... for the next 1 hour: <LOC> [09:28 hours]"
			return ParsedAlert{Location: spanBetweenTokens(text, tokens, ":", "[")}
		},
	},
	{
		event: EventFlashFlood,
		match: func(lower string) bool { return strings.HasPrefix(lower, "[flash flood occurred]") },
		extract: func(text string, tokens []token, _ time.Time) ParsedAlert {
			// "Flash flood at <LOC>."
			return ParsedAlert{Location: spanAfterUntil(text, tokens, "at", ".", "")}
		},
	},
	{
		event: EventFloodSubsided,
		match: func(lower string) bool { return strings.Contains(lower, "subsided at") },
		extract: func(text string, tokens []token, _ time.Time) ParsedAlert {
			// "subsided at <LOC>."
			return ParsedAlert{Location: spanAfterUntil(text, tokens, "subsided", ".", "at")}
		},
	},
	{
		event: EventHeavyRain,
		match: func(lower string) bool { return strings.Contains(lower, "heavy rain expected") },
		extract: func(text string, tokens []token, anchor time.Time) ParsedAlert {
			parsed := ParsedAlert{Location: spanBetweenKeywords(text, tokens, "over", "from")}

			// "from HH:MM hours to HH:MM hours"
			if frag := textAfterBefore(text, "from", "hours", 0); frag != "" {
				if t, ok := ResolveClockTime(frag, anchor); ok {
					parsed.Start = &t
				}
			}
			// The end window starts at the padded " to " so a bare "to"
			// earlier in the text is never picked up.
			if pos := strings.Index(strings.ToLower(text), " to "); pos >= 0 {
				if frag := textAfterBefore(text, "to", "hours", pos); frag != "" {
					if t, ok := ResolveClockTime(frag, anchor); ok {
						parsed.End = &t
					}
				}
			}
			return parsed
		},
	},
}

// ParseAlert classifies a message text and extracts its structured fields.
// At most one rule fires; a message matching no rule is not an error and
// comes back as EventUnclassified with every other field absent, preserving
// the raw text for manual follow-up.
func ParseAlert(text string, anchor time.Time) ParsedAlert {
	lower := strings.ToLower(text)
	tokens := tokenize(text)

	for _, rule := range alertRules {
		if rule.match(lower) {
			parsed := rule.extract(text, tokens, anchor)
			parsed.Event = rule.event
			return parsed
		}
	}
	return ParsedAlert{Event: EventUnclassified}
}
