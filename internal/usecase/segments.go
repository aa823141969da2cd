package usecase

import (
	"path/filepath"
	"strings"

	"scribe/internal/domain"
)

// segmentsFromResponse maps diarized entries one to one. Without diarization
// the whole transcript becomes a single [0, 0] segment.
func segmentsFromResponse(resp domain.TranscriptionResponse) []domain.Segment {
	if len(resp.Diarized) == 0 {
		return []domain.Segment{{Start: 0, Stop: 0, Text: resp.Transcript}}
	}
	out := make([]domain.Segment, 0, len(resp.Diarized))
	for _, entry := range resp.Diarized {
		out = append(out, domain.Segment{
			Start:   entry.Timestamp[0],
			Stop:    entry.Timestamp[1],
			Text:    entry.Text,
			Speaker: entry.Speaker,
		})
	}
	return out
}

// summarySegment spans from zero to the stop of the last transcript segment.
func summarySegment(segments []domain.Segment, text string) domain.Segment {
	var lastStop float64
	if len(segments) > 0 {
		lastStop = segments[len(segments)-1].Stop
	}
	return domain.Segment{Start: 0, Stop: lastStop, Text: text}
}

// NamedPaths pairs each non-empty path with its base name.
func NamedPaths(paths []string) []domain.NamedPath {
	out := make([]domain.NamedPath, 0, len(paths))
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		out = append(out, domain.NamedPath{Name: filepath.Base(path), Path: path})
	}
	return out
}
