package v1

import (
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceReader struct {
	chunks []string
	err    error
}

func (r *sliceReader) Next() (string, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return "", r.err
		}
		return "", io.EOF
	}
	c := r.chunks[0]
	r.chunks = r.chunks[1:]
	return c, nil
}

func TestStreamIngestPlainText(t *testing.T) {
	var (
		ing     StreamIngestor
		updates []string
	)
	res, err := ing.Ingest(&sliceReader{chunks: []string{"Entropy ", "", "is a measure ", "of disorder."}}, func(content string) {
		updates = append(updates, content)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Entropy ", "Entropy is a measure ", "Entropy is a measure of disorder."}, updates)
	assert.Equal(t, "Entropy is a measure of disorder.", res.Content)
	assert.Equal(t, 3, res.Chunks)
	assert.False(t, res.Completed)
}

// completingReader reports a completion token once drained.
type completingReader struct {
	sliceReader
	token     string
	completed bool
}

func (r *completingReader) Completion() (string, bool) {
	return r.token, r.completed
}

func TestStreamIngestReportsCompletion(t *testing.T) {
	var ing StreamIngestor
	r := &completingReader{sliceReader: sliceReader{chunks: []string{"The answer", " is 42."}}, token: "chat-7", completed: true}
	res, err := ing.Ingest(r, nil)
	require.NoError(t, err)

	assert.True(t, res.Completed)
	assert.Equal(t, "chat-7", res.Token)
	assert.Equal(t, "The answer is 42.", res.Content)
}

func TestStreamIngestWithoutCompletion(t *testing.T) {
	var ing StreamIngestor
	r := &completingReader{sliceReader: sliceReader{chunks: []string{"partial"}}}
	res, err := ing.Ingest(r, nil)
	require.NoError(t, err)

	assert.False(t, res.Completed)
	assert.Empty(t, res.Token)
}

func TestStreamShowsLineBreaksAndBrackets(t *testing.T) {
	var ing StreamIngestor

	assert.Equal(t, "Entropy is:\n", ing.Push("Entropy is:\n"))
	assert.Equal(t, "Entropy is:\n[", ing.Push("["))
	assert.Equal(t, "Entropy is:\n[[DONE]]", ing.Push("[DONE]]"))
	assert.Equal(t, "Entropy is:\n[[DONE]]\n\n", ing.Push("\n\n"))

	res := ing.Finish()
	assert.False(t, res.Completed)
	assert.Equal(t, "Entropy is:\n[[DONE]]\n\n", res.Content)
	assert.Equal(t, 4, res.Chunks)
}

func TestStreamIngestEmptyStream(t *testing.T) {
	var ing StreamIngestor
	res, err := ing.Ingest(&sliceReader{}, nil)
	require.NoError(t, err)

	assert.Empty(t, res.Content)
	assert.Zero(t, res.Chunks)
	assert.False(t, res.Completed)
}

func TestStreamIngestReadError(t *testing.T) {
	var ing StreamIngestor
	boom := errors.New("connection reset")
	res, err := ing.Ingest(&sliceReader{chunks: []string{"partial"}, err: boom}, nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "partial", res.Content)
	assert.Equal(t, 1, res.Chunks)
}

func TestStreamDisplayEqualsConcatenation(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	alphabet := []rune("ab [\n]DONE日é.")

	for round := 0; round < 200; round++ {
		var (
			ing StreamIngestor
			raw strings.Builder
		)
		for i := rnd.Intn(12); i >= 0; i-- {
			var chunk strings.Builder
			for j := rnd.Intn(6); j >= 0; j-- {
				chunk.WriteRune(alphabet[rnd.Intn(len(alphabet))])
			}
			raw.WriteString(chunk.String())
			require.Equal(t, raw.String(), ing.Push(chunk.String()), "round %d", round)
		}
		require.Equal(t, raw.String(), ing.Finish().Content, "round %d", round)
	}
}
