package export

import (
	"strings"
)

// styledSegment is a run of text with one emphasis state.
type styledSegment struct {
	text   string
	italic bool
}

// parseStyledSegments splits text marked with <i>...</i> into plain and
// italic runs. An unclosed <i> italicizes through the end of the text.
func parseStyledSegments(text string) []styledSegment {
	var segs []styledSegment
	for text != "" {
		open := strings.Index(text, "<i>")
		if open < 0 {
			segs = append(segs, styledSegment{text: text})
			break
		}
		if open > 0 {
			segs = append(segs, styledSegment{text: text[:open]})
		}
		text = text[open+len("<i>"):]

		closeIdx := strings.Index(text, "</i>")
		if closeIdx < 0 {
			segs = append(segs, styledSegment{text: text, italic: true})
			break
		}
		segs = append(segs, styledSegment{text: text[:closeIdx], italic: true})
		text = text[closeIdx+len("</i>"):]
	}
	return segs
}

// splitLongText breaks a passage into sub-paragraphs no longer than
// threshold characters, so a single huge field cannot destabilize the
// report paginator. Splits happen at existing paragraph breaks first, then
// at sentence boundaries, and only as a last resort mid-sentence at a word
// boundary. A split can land inside an italic run (abbreviated genus and
// subspecies forms carry ". " between their markers), so emphasis is
// re-balanced across chunk boundaries afterwards.
func splitLongText(text string, threshold int) []string {
	if threshold <= 0 {
		threshold = 1000
	}

	var out []string
	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= threshold {
			out = append(out, para)
			continue
		}
		out = append(out, splitAtSentences(para, threshold)...)
	}
	return balanceEmphasis(out)
}

// balanceEmphasis closes an italic run left open at a chunk boundary and
// reopens it at the start of the next chunk, so every chunk parses as
// well-formed on its own.
func balanceEmphasis(chunks []string) []string {
	open := false
	for i, chunk := range chunks {
		if open {
			chunk = "<i>" + chunk
		}
		open = emphasisLeftOpen(chunk)
		if open {
			chunk += "</i>"
		}
		chunks[i] = chunk
	}
	return chunks
}

// emphasisLeftOpen reports whether s ends inside an <i> run.
func emphasisLeftOpen(s string) bool {
	return strings.LastIndex(s, "<i>") > strings.LastIndex(s, "</i>")
}

func splitAtSentences(para string, threshold int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, sentence := range splitKeepingDelimiter(para, ". ") {
		if current.Len() > 0 && current.Len()+len(sentence) > threshold {
			flush()
		}
		// A single sentence longer than the threshold is split at word
		// boundaries.
		if len(sentence) > threshold {
			flush()
			chunks = append(chunks, splitAtWords(sentence, threshold)...)
			continue
		}
		current.WriteString(sentence)
	}
	flush()

	return chunks
}

// splitKeepingDelimiter splits s on sep, keeping sep attached to the
// preceding piece.
func splitKeepingDelimiter(s, sep string) []string {
	var parts []string
	for {
		i := strings.Index(s, sep)
		if i < 0 {
			if s != "" {
				parts = append(parts, s)
			}
			return parts
		}
		parts = append(parts, s[:i+len(sep)])
		s = s[i+len(sep):]
	}
}

func splitAtWords(s string, threshold int) []string {
	words := strings.Fields(s)
	var chunks []string
	var current strings.Builder

	for _, word := range words {
		if current.Len() > 0 && current.Len()+len(word)+1 > threshold {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
