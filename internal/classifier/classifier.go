// Package classifier maps an encoded image payload onto a condition record
// through a deterministic fingerprint. No image analysis takes place: equal
// payloads always produce equal results.
package classifier

import (
	"errors"
	"unicode/utf16"

	"github.com/example/meddetect/internal/condition"
)

const (
	baseConfidence = 75
	confidenceSpan = 20
	maxConfidence  = 95
)

// ErrMissingInput is returned when the payload is absent or empty.
var ErrMissingInput = errors.New("no image data provided")

// Result is the outcome of classifying one payload.
type Result struct {
	Key             string   `json:"-"`
	CancerType      string   `json:"cancerType"`
	Confidence      int      `json:"confidence"`
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
}

// Fingerprint folds every UTF-16 code unit of s into a signed 32-bit
// accumulator using acc*31 + u, wrapping on overflow at each step. Characters
// outside the BMP contribute both halves of their surrogate pair.
func Fingerprint(s string) int32 {
	var acc int32
	for _, u := range utf16.Encode([]rune(s)) {
		acc = (acc << 5) - acc + int32(u)
	}
	return acc
}

// Classify selects the condition record and confidence for imageData.
func Classify(imageData string) (Result, error) {
	if imageData == "" {
		return Result{}, ErrMissingInput
	}

	h := int64(Fingerprint(imageData))
	if h < 0 {
		h = -h
	}

	rec := condition.At(int(h % int64(condition.Len())))

	// 75 + (h mod 20) tops out at 94, so the ceiling never binds.
	confidence := min(baseConfidence+int(h%confidenceSpan), maxConfidence)

	return Result{
		Key:             rec.Key,
		CancerType:      rec.DisplayName,
		Confidence:      confidence,
		Description:     rec.Description,
		Recommendations: rec.Recommendations,
	}, nil
}
