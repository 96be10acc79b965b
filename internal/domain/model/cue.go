package model

// Cue is one timed entry of a subtitle track. Start and End are kept in their
// original HH:MM:SS,mmm text form and are never reparsed.
type Cue struct {
	Index          int    `json:"index"`
	Start          string `json:"start"`
	End            string `json:"end"`
	SourceText     string `json:"sourceText"`
	TranslatedText string `json:"translatedText,omitempty"`
}

// Text returns the translation when present, otherwise the source text.
func (c Cue) Text() string {
	if c.TranslatedText != "" {
		return c.TranslatedText
	}
	return c.SourceText
}

// Translated reports whether a translation has been recorded for the cue.
func (c Cue) Translated() bool {
	return c.TranslatedText != ""
}
