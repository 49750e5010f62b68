// Package track defines the repository record model and its lifecycle.
package track

import (
	"encoding/json"
	"fmt"
)

// Status is the tracked lifecycle state of a repository.
type Status string

// Repository states.
const (
	// StatusNoSignal means no weights were detected or promised.
	StatusNoSignal Status = "no_signal"
	// StatusPromised means weights were promised but not yet released.
	StatusPromised Status = "promised"
	// StatusAvailable means published weights were detected.
	StatusAvailable Status = "available"
)

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNoSignal, StatusPromised, StatusAvailable:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// UnmarshalJSON rejects unknown status values at the deserialization boundary.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// WeightSource classifies where published weights live.
type WeightSource string

// Weight source categories, in decreasing default confidence.
const (
	WeightHub       WeightSource = "hub"       // Model hub (HuggingFace)
	WeightRelease   WeightSource = "release"   // GitHub release assets
	WeightCloud     WeightSource = "cloud"     // Cloud drive links
	WeightExtension WeightSource = "extension" // Model file extensions near weight keywords
)

// ParseWeightSource validates a raw weight source string. Empty is allowed
// and means no weights were classified.
func ParseWeightSource(s string) (WeightSource, error) {
	switch WeightSource(s) {
	case "", WeightHub, WeightRelease, WeightCloud, WeightExtension:
		return WeightSource(s), nil
	}
	return "", fmt.Errorf("unknown weight source %q", s)
}

// UnmarshalJSON rejects unknown weight source values.
func (w *WeightSource) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseWeightSource(raw)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
