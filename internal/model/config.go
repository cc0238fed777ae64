package model

import "time"

// Config is the full runtime configuration, assembled from defaults, the
// config file, MDEX_* environment variables and CLI flags (in ascending
// priority).
type Config struct {
	Detector    DetectorConfig    `yaml:"detector" json:"detector"`
	Tables      TablesConfig      `yaml:"tables" json:"tables"`
	Xref        XrefConfig        `yaml:"xref" json:"xref"`
	Reader      ReaderConfig      `yaml:"reader" json:"reader"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
}

// DetectorConfig holds the section-boundary thresholds. The TOC-filter
// constants are empirically tuned against EDGAR filings; they are exposed
// here rather than hardcoded so they can be recalibrated without a rebuild.
type DetectorConfig struct {
	// MinStartOffset is how far into the document a section start must sit
	// to be trusted (tables of contents live early). Bytes. Quarterly
	// filings are shorter, so they get their own, lower floor.
	MinStartOffset          int `yaml:"min_start_offset" json:"min_start_offset"`
	MinStartOffsetQuarterly int `yaml:"min_start_offset_quarterly" json:"min_start_offset_quarterly"`
	// ShortDocLimit relaxes the offset rule for documents below this size.
	ShortDocLimit int `yaml:"short_doc_limit" json:"short_doc_limit"`
	// TOCLookback is how far back to scan for a contents-page marker.
	TOCLookback int `yaml:"toc_lookback" json:"toc_lookback"`
	// DenseLineThreshold / DenseLineWindow: a lookback window counting more
	// than DenseLineThreshold lines of >20 non-blank chars among the last
	// DenseLineWindow lines is considered body text, not a contents page.
	DenseLineThreshold int `yaml:"dense_line_threshold" json:"dense_line_threshold"`
	DenseLineWindow    int `yaml:"dense_line_window" json:"dense_line_window"`
	// LookaheadBytes is how much following text is inspected for
	// contents-entry shape (dot leaders, page numbers, short lines).
	LookaheadBytes int `yaml:"lookahead_bytes" json:"lookahead_bytes"`
	// MinSpanBytes: an annual-report span shorter than this is treated as
	// contents-page residue and detection retries from a later candidate.
	MinSpanBytes int `yaml:"min_span_bytes" json:"min_span_bytes"`
	// MaxSpanAnnual / MaxSpanQuarterly cap the span when no end marker of
	// any kind is found.
	MaxSpanAnnual    int `yaml:"max_span_annual" json:"max_span_annual"`
	MaxSpanQuarterly int `yaml:"max_span_quarterly" json:"max_span_quarterly"`
}

// TablesConfig holds the table-detection thresholds.
type TablesConfig struct {
	MinRows    int `yaml:"min_rows" json:"min_rows"`
	MinColumns int `yaml:"min_columns" json:"min_columns"`
	// MinAlignRatio is the fraction of header-derived column boundaries a
	// line must populate to count as an aligned-table row.
	MinAlignRatio float64 `yaml:"min_align_ratio" json:"min_align_ratio"`
}

// XrefConfig bounds cross-reference resolution.
type XrefConfig struct {
	MaxDepth int  `yaml:"max_depth" json:"max_depth"`
	Resolve  bool `yaml:"resolve" json:"resolve"`
}

// ReaderConfig bounds filing input handling.
type ReaderConfig struct {
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`
}

// CacheConfig controls the normalized-document cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Dir     string        `yaml:"dir" json:"dir"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// ConcurrencyConfig controls batch parallelism.
type ConcurrencyConfig struct {
	Workers        int     `yaml:"workers" json:"workers"`
	FilesPerSecond float64 `yaml:"files_per_second" json:"files_per_second"` // 0 = unlimited
	Burst          int     `yaml:"burst" json:"burst"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Dir            string `yaml:"dir" json:"dir"`
	JSON           bool   `yaml:"json" json:"json"`
	AppendXrefs    bool   `yaml:"append_xrefs" json:"append_xrefs"`
	Verbose        bool   `yaml:"verbose" json:"verbose"`
	LogJSON        bool   `yaml:"log_json" json:"log_json"`
}

// LLMConfig configures the optional post-extraction summarizer. Summaries
// are generated after extraction and never influence detection.
type LLMConfig struct {
	Provider  string `yaml:"provider" json:"provider"` // "", "openai", "ollama"
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"-" json:"-"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
	Timeout   int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Detector: DetectorConfig{
			MinStartOffset:          15 * 1024,
			MinStartOffsetQuarterly: 10 * 1024,
			ShortDocLimit:           5000,
			TOCLookback:             5000,
			DenseLineThreshold:      10,
			DenseLineWindow:         20,
			LookaheadBytes:          2000,
			MinSpanBytes:            2000,
			MaxSpanAnnual:           150000,
			MaxSpanQuarterly:        100000,
		},
		Tables: TablesConfig{
			MinRows:       2,
			MinColumns:    2,
			MinAlignRatio: 0.5,
		},
		Xref: XrefConfig{
			MaxDepth: 3,
			Resolve:  true,
		},
		Reader: ReaderConfig{
			MaxFileSizeMB: 250,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "", // resolved to ~/.mdex/cache at startup
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:        4,
			FilesPerSecond: 0,
			Burst:          5,
		},
		Output: OutputConfig{
			Dir:         "./mdex-output",
			JSON:        false,
			AppendXrefs: true,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 1000,
		},
	}
}
