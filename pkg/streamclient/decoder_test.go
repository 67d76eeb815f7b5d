package streamclient

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sinispace-backend/internal/models"
)

func collect(t *testing.T, d *Decoder) []models.StreamFrame {
	t.Helper()
	var frames []models.StreamFrame
	for {
		frame, err := d.Next()
		if err == io.EOF {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, *frame)
	}
}

func TestDecoderReadsFramedEvents(t *testing.T) {
	input := "data: {\"type\":\"delta\",\"text\":\"Par\"}\n\n" +
		"data: {\"type\":\"delta\",\"text\":\"is\"}\n\n" +
		"data: {\"type\":\"usage\",\"usage\":{\"prompt_tokens\":12,\"completion_tokens\":3,\"total_tokens\":15}}\n\n" +
		"data: {\"type\":\"done\"}\n\n"

	frames := collect(t, NewDecoder(strings.NewReader(input)))

	require.Len(t, frames, 4)
	assert.Equal(t, models.StreamFrame{Type: models.FrameDelta, Text: "Par"}, frames[0])
	assert.Equal(t, models.StreamFrame{Type: models.FrameDelta, Text: "is"}, frames[1])
	require.NotNil(t, frames[2].Usage)
	assert.Equal(t, 12, frames[2].Usage.PromptTokens)
	assert.Equal(t, models.FrameDone, frames[3].Type)
}

func TestDecoderSkipsBlankLinesAndComments(t *testing.T) {
	input := "\n\n: keep-alive ping\n" +
		"data: {\"type\":\"delta\",\"text\":\"x\"}\n\n" +
		": another comment\n\n"

	frames := collect(t, NewDecoder(strings.NewReader(input)))

	require.Len(t, frames, 1)
	assert.Equal(t, "x", frames[0].Text)
}

// A multi-byte rune split across two reads must reassemble instead of being
// decoded as two broken characters.
type chunkedReader struct {
	chunks [][]byte
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	if n == len(c.chunks[0]) {
		c.chunks = c.chunks[1:]
	} else {
		c.chunks[0] = c.chunks[0][n:]
	}
	return n, nil
}

func TestDecoderReassemblesSplitRunes(t *testing.T) {
	event := []byte("data: {\"type\":\"delta\",\"text\":\"héllo\"}\n\n")
	// Split inside the two-byte encoding of 'é'.
	cut := strings.Index(string(event), "h") + 2
	r := &chunkedReader{chunks: [][]byte{event[:cut], event[cut:]}}

	frames := collect(t, NewDecoder(r))

	require.Len(t, frames, 1)
	assert.Equal(t, "héllo", frames[0].Text)
}

func TestDecoderDegradesUnparseableLinesToDeltas(t *testing.T) {
	input := "data: not json at all\n\n" +
		"data: {\"no_type\":true}\n\n"

	frames := collect(t, NewDecoder(strings.NewReader(input)))

	require.Len(t, frames, 2)
	assert.Equal(t, models.FrameDelta, frames[0].Type)
	assert.Equal(t, "not json at all", frames[0].Text)
	assert.Equal(t, models.FrameDelta, frames[1].Type)
	assert.Equal(t, "{\"no_type\":true}", frames[1].Text)
}

func TestDecoderHandlesFinalLineWithoutNewline(t *testing.T) {
	input := "data: {\"type\":\"delta\",\"text\":\"a\"}\n\n" +
		"data: {\"type\":\"done\"}"

	d := NewDecoder(strings.NewReader(input))

	frame, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", frame.Text)

	frame, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, models.FrameDone, frame.Type)

	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoderHandlesCRLF(t *testing.T) {
	input := "data: {\"type\":\"delta\",\"text\":\"a\"}\r\n\r\n"

	frames := collect(t, NewDecoder(strings.NewReader(input)))

	require.Len(t, frames, 1)
	assert.Equal(t, "a", frames[0].Text)
}
