package model

import "time"

// Report describes the outcome of annotating one document
type Report struct {
	Source      string     `json:"source"`                // File path, URL or "-" for stdin
	Kind        string     `json:"kind,omitempty"`        // Content kind, when the host supplied one
	AnnotatedAt time.Time  `json:"annotated_at"`          // When the pass ran
	FetchMeta   *FetchMeta `json:"fetch_meta,omitempty"`  // HTTP metadata for URL sources
	State       string     `json:"state"`                 // Final annotation state (done, failed, skipped)
	Changed     bool       `json:"changed"`               // Whether any tooltip was inserted
	Matches     int        `json:"matches"`               // Number of inserted tooltips
	Highlighted []string   `json:"highlighted,omitempty"` // Term ids that produced at least one tooltip
	TermCount   int        `json:"term_count"`            // Terms offered to the annotator
	Cached      bool       `json:"cached"`                // Served from the output cache
	DurationMS  int64      `json:"duration_ms"`           // Wall time of the pass
	Error       string     `json:"error,omitempty"`       // Fail-open reason, if any
}

// FetchMeta contains HTTP metadata from fetching the source
type FetchMeta struct {
	StatusCode   int    `json:"status_code"`
	ContentType  string `json:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	ETag         string `json:"etag,omitempty"`
	FinalURL     string `json:"final_url,omitempty"`
}
