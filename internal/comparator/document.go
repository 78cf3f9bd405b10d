package comparator

import (
	"context"
	"strings"

	dErrors "rollcall/pkg/domain-errors"
)

// documentMatchThreshold is the minimum field-match score for a valid document.
const documentMatchThreshold = 0.7

// TextDocument scores extracted document text against expected identity
// fields. Capture devices run the OCR step and submit the recognized text;
// this comparator owns only the matching policy.
//
// Scoring: exact roll-code hit is worth 0.5, a partial roll segment 0.25;
// a fully matched name is worth 0.5, a partially matched name a proportional
// share of 0.5. The document is valid when the total reaches 0.7, so a
// partial roll match alone can never validate a document.
type TextDocument struct{}

// NewTextDocument constructs the embedded document comparator.
func NewTextDocument() *TextDocument {
	return &TextDocument{}
}

func (c *TextDocument) ExtractAndCompare(ctx context.Context, sample []byte, expectedID, expectedName string) (DocumentResult, error) {
	if len(sample) == 0 {
		return DocumentResult{}, dErrors.New(dErrors.CodeInvalidInput, "document payload is empty")
	}

	text := strings.ToLower(string(sample))
	fields := make(map[string]string)
	var score float64

	rollCode := strings.ToLower(strings.TrimSpace(expectedID))
	if rollCode != "" {
		if strings.Contains(text, rollCode) {
			score += 0.5
			fields["roll_no"] = expectedID
		} else if segmentHit(text, rollCode) {
			score += 0.25
		}
	}

	nameParts := strings.Fields(strings.ToLower(expectedName))
	if len(nameParts) > 0 {
		matched := 0
		for _, part := range nameParts {
			if strings.Contains(text, part) {
				matched++
			}
		}
		switch {
		case matched == len(nameParts):
			score += 0.5
			fields["name"] = expectedName
		case matched > 0:
			score += 0.5 * float64(matched) / float64(len(nameParts))
		}
	}

	if score > 1 {
		score = 1
	}

	return DocumentResult{
		Matched:    score >= documentMatchThreshold,
		Confidence: score,
		Fields:     fields,
	}, nil
}

// segmentHit reports whether any dash-separated segment of the roll code
// appears in the text. Codes like "CS-2021-044" often OCR with the year or
// serial intact even when the prefix smears.
func segmentHit(text, rollCode string) bool {
	for _, segment := range strings.Split(rollCode, "-") {
		if segment != "" && strings.Contains(text, segment) {
			return true
		}
	}
	return false
}
