package domain

// Segment is one timestamped utterance of a transcript.
type Segment struct {
	StartSec float64 `json:"start_sec" yaml:"start_sec"`
	EndSec   float64 `json:"end_sec" yaml:"end_sec"`
	Text     string  `json:"text" yaml:"text"`
	Speaker  string  `json:"speaker,omitempty" yaml:"speaker,omitempty"`
}

// Transcript is the output of the speech-to-text collaborator.
type Transcript struct {
	Text     string    `json:"text" yaml:"text"`
	Segments []Segment `json:"segments" yaml:"segments"`
}
