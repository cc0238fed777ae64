package model

import "time"

// Subsection is a named heading found inside the extracted section
// (Overview, Results of Operations, Liquidity and Capital Resources, ...).
type Subsection struct {
	Title   string `json:"title"`
	Start   int    `json:"start"`
	End     int    `json:"end"` // start of the next subsection, or span end
	LineNum int    `json:"line"`
	HeadEnd int    `json:"-"` // end offset of the heading match itself
}

// ExtractionResult is the assembled output of one extraction run.
type ExtractionResult struct {
	Filing      Filing    `json:"filing"`
	ExtractedAt time.Time `json:"extracted_at"`

	Text      string `json:"-"` // extracted section text (rendered separately)
	Start     int    `json:"start"`
	End       int    `json:"end"`
	WordCount int    `json:"word_count"`

	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings,omitempty"`

	Subsections []Subsection `json:"subsections,omitempty"`
	TableCount  int          `json:"table_count"`
	XrefCount   int          `json:"cross_reference_count"`

	// ViaIncorporation is set when the section was not found inline and was
	// instead recovered from a referenced external document.
	ViaIncorporation bool   `json:"via_incorporation,omitempty"`
	ReferencedDoc    string `json:"referenced_doc,omitempty"`

	// Summary holds the optional LLM-generated summary. It is produced
	// after extraction completes and never influences detection.
	Summary *SummaryResult `json:"summary,omitempty"`
}

// SummaryResult carries an optional model-generated summary of the
// extracted section.
type SummaryResult struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Text       string `json:"text"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}

// Stats aggregates the outcome of a batch run.
type Stats struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Filtered   int `json:"filtered"`
}
