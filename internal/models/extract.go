package models

// ExtractResult is the outcome of the extraction stage. Either Text is
// populated directly, or NeedsTranscription is set with the path to a
// downloaded audio file for the transcriber.
type ExtractResult struct {
	Text               string
	NeedsTranscription bool
	AudioPath          string
	Language           string
	SourceLabel        string // captions, whisper, article, pdf, epub
	Meta               map[string]interface{}
}

// MetaTitle returns the extractor-reported title, if any
func (r *ExtractResult) MetaTitle() string {
	if r.Meta == nil {
		return ""
	}
	if title, ok := r.Meta["title"].(string); ok {
		return title
	}
	return ""
}
