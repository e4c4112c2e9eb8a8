// Package domain models flood and rain alerts published on Singapore PUB's
// public water-level channel and the rule-based parser that structures them.
//
// # Alert Templates
//
// The channel posts free text, but every alert follows one of four
// stereotyped templates with a stable prefix or substring cue:
//
//	"[Risk of Flash Floods] ... for the next 1 hour: <LOC> [HH:MM hours]"
//	"[FLASH FLOOD OCCURRED] Flash flood at <LOC>. ..."
//	"Flash flood subsided at <LOC>. Issued HHMM hours."
//	"Heavy rain expected over <LOC> from HH:MM hours to HH:MM hours. [Issued by NEA, HH:MM hours]"
//
// Classification walks the rules in the order above; the first match wins
// and anything else is tagged [EventUnclassified] with the raw text kept for
// manual follow-up. A miss is a normal outcome, never an error.
//
// # Span Extraction
//
// Locations are free-text spans bounded by cue tokens (":", "[", ".", "at",
// "over", "from"). Text is tokenized into word and punctuation tokens with
// byte offsets, and the extracted span is the original substring strictly
// between the boundary tokens, trimmed. Boundary tokens are excluded from
// the span. Missing boundaries yield an absent span.
//
// # Time Windows
//
// Clock times appear as "09:28", "0928" or "09:28 hours" with no date; the
// date comes from the message's own receipt time (the anchor). An hour over
// 23 or a minute over 59 invalidates the field to absent rather than
// erroring. See [ResolveClockTime].
package domain
