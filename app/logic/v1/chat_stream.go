package v1

import (
	"errors"
	"io"
	"strings"
)

type ChunkReader interface {
	Next() (string, error)
}

// completionReporter is implemented by readers that learn, once drained, whether
// the backend acknowledged the reply as persisted.
type completionReporter interface {
	Completion() (token string, ok bool)
}

type StreamResult struct {
	Content string
	Chunks  int
	// Completed reports whether the backend signalled completion after the body.
	Completed bool
	Token     string
}

// StreamIngestor folds a streamed reply into the displayed assistant content.
// After every chunk the displayed text is exactly the concatenation of the
// chunks received so far.
type StreamIngestor struct {
	raw    strings.Builder
	chunks int
}

// Push appends a decoded chunk and returns the content to display.
func (s *StreamIngestor) Push(chunk string) string {
	if chunk != "" {
		s.chunks++
		s.raw.WriteString(chunk)
	}
	return s.raw.String()
}

func (s *StreamIngestor) Content() string {
	return s.raw.String()
}

func (s *StreamIngestor) Finish() StreamResult {
	return StreamResult{Chunks: s.chunks, Content: s.raw.String()}
}

// Ingest drains r, calling onUpdate with the displayed content after every non-empty chunk.
// A read error other than io.EOF aborts ingestion and is returned.
func (s *StreamIngestor) Ingest(r ChunkReader, onUpdate func(content string)) (StreamResult, error) {
	for {
		chunk, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return StreamResult{Content: s.Content(), Chunks: s.chunks}, err
		}
		if chunk == "" {
			continue
		}
		content := s.Push(chunk)
		if onUpdate != nil {
			onUpdate(content)
		}
	}

	res := s.Finish()
	if cr, ok := r.(completionReporter); ok {
		res.Token, res.Completed = cr.Completion()
	}
	return res, nil
}
