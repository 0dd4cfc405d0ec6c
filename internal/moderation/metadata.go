package moderation

import (
	"fmt"
	"strings"

	"github.com/pkallio/photoguard-go/internal/conf"
)

// Heuristic score increments for the metadata analyzer.
const (
	oversizeSpamIncrement      = 0.3
	disallowedMimeIncrement    = 0.4
	blockedFilenameIncrement   = 0.3
	metadataAnalyzerConfidence = 0.6
	metadataAnalyzerWeight     = 0.5
)

// FileMetadata describes an uploaded file without touching its content.
type FileMetadata struct {
	SizeBytes int64
	MimeType  string
	Filename  string
}

// AnalyzeFileMetadata scores a file on cheap local heuristics: declared size,
// declared mime type and filename. It never inspects image content, never
// performs I/O and never fails; its output is one more combinable signal
// with a reduced weight.
func AnalyzeFileMetadata(meta FileMetadata, settings *conf.ModerationSettings) RawResult {
	var score float64
	var categories CategoryScores
	var notes []string

	maxFileSize := settings.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = conf.DefaultMaxFileSize
	}

	if meta.SizeBytes > maxFileSize {
		score += oversizeSpamIncrement
		categories.Add(CategorySpam, oversizeSpamIncrement)
		notes = append(notes, fmt.Sprintf("file size %d exceeds limit %d", meta.SizeBytes, maxFileSize))
	}

	if !AllowedMimeType(meta.MimeType) {
		score += disallowedMimeIncrement
		categories.Add(CategoryInappropriate, disallowedMimeIncrement)
		notes = append(notes, fmt.Sprintf("mime type %q is not allowed", meta.MimeType))
	}

	lowerName := strings.ToLower(meta.Filename)
	for _, blocked := range settings.FilenameBlocklist {
		if blocked == "" {
			continue
		}
		if strings.Contains(lowerName, strings.ToLower(blocked)) {
			score += blockedFilenameIncrement
			categories.Add(CategoryInappropriate, blockedFilenameIncrement)
			notes = append(notes, fmt.Sprintf("filename matches blocklist token %q", blocked))
			break
		}
	}

	return RawResult{
		Score:      clamp01(score),
		Categories: categories,
		Confidence: metadataAnalyzerConfidence,
		Weight:     metadataAnalyzerWeight,
		Reasoning:  strings.Join(notes, "; "),
	}
}
