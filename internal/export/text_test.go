package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyledSegments(t *testing.T) {
	t.Parallel()

	segs := parseStyledSegments("stands of <i>Quercus garryana</i> with oaks")
	require.Len(t, segs, 3)
	assert.Equal(t, styledSegment{text: "stands of "}, segs[0])
	assert.Equal(t, styledSegment{text: "Quercus garryana", italic: true}, segs[1])
	assert.Equal(t, styledSegment{text: " with oaks"}, segs[2])
}

func TestParseStyledSegmentsUnclosed(t *testing.T) {
	t.Parallel()

	segs := parseStyledSegments("before <i>rest of text")
	require.Len(t, segs, 2)
	assert.False(t, segs[0].italic)
	assert.True(t, segs[1].italic)
	assert.Equal(t, "rest of text", segs[1].text)
}

func TestParseStyledSegmentsPlain(t *testing.T) {
	t.Parallel()

	segs := parseStyledSegments("no markup at all")
	require.Len(t, segs, 1)
	assert.Equal(t, "no markup at all", segs[0].text)
}

func TestSplitLongTextShortPassesThrough(t *testing.T) {
	t.Parallel()

	out := splitLongText("short paragraph", 100)
	assert.Equal(t, []string{"short paragraph"}, out)
}

func TestSplitLongTextParagraphBreaks(t *testing.T) {
	t.Parallel()

	out := splitLongText("first para\nsecond para\n\nthird", 100)
	assert.Equal(t, []string{"first para", "second para", "third"}, out)
}

func TestSplitLongTextSentenceBoundaries(t *testing.T) {
	t.Parallel()

	sentence := "This stand persists for decades. "
	long := strings.Repeat(sentence, 10)

	out := splitLongText(long, 100)
	require.Greater(t, len(out), 1)
	for _, chunk := range out {
		assert.LessOrEqual(t, len(chunk), 120, "chunk within threshold margin")
	}
	// Nothing lost in the split.
	assert.Equal(t, strings.Count(long, "persists"), strings.Count(strings.Join(out, " "), "persists"))
}

func TestSplitLongTextRebalancesEmphasisAcrossChunks(t *testing.T) {
	t.Parallel()

	// The abbreviated genus form carries ". " inside its markers, so the
	// sentence splitter can cut between "<i>Q." and "garryana</i>".
	long := strings.Repeat("x", 50) + " <i>Q. garryana</i> " + strings.Repeat("y", 50) + "."
	out := splitLongText(long, 60)
	require.Greater(t, len(out), 1)

	for _, chunk := range out {
		assert.Equal(t, strings.Count(chunk, "<i>"), strings.Count(chunk, "</i>"),
			"chunk %q has unbalanced markers", chunk)
		for _, seg := range parseStyledSegments(chunk) {
			assert.NotContains(t, seg.text, "<i>")
			assert.NotContains(t, seg.text, "</i>")
		}
	}

	// Both halves of the name render italic on their side of the boundary.
	var genusItalic, speciesItalic bool
	for _, chunk := range out {
		for _, seg := range parseStyledSegments(chunk) {
			if seg.italic && strings.Contains(seg.text, "Q.") {
				genusItalic = true
			}
			if seg.italic && strings.Contains(seg.text, "garryana") {
				speciesItalic = true
			}
		}
	}
	assert.True(t, genusItalic)
	assert.True(t, speciesItalic)
}

func TestSplitLongTextSubspeciesMarkerStraddle(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 48) + " <i>Pinus ponderosa var. scopulorum</i> " + strings.Repeat("b", 48) + "."
	out := splitLongText(long, 60)
	require.Greater(t, len(out), 1)

	for _, chunk := range out {
		assert.Equal(t, strings.Count(chunk, "<i>"), strings.Count(chunk, "</i>"),
			"chunk %q has unbalanced markers", chunk)
		for _, seg := range parseStyledSegments(chunk) {
			assert.NotContains(t, seg.text, "</i>")
		}
	}
}

func TestSplitLongTextGiantSentence(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 200)
	out := splitLongText(long, 80)
	require.Greater(t, len(out), 1)
	for _, chunk := range out {
		assert.LessOrEqual(t, len(chunk), 80)
	}
}
