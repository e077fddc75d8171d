package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Entry describes a ledger entry in a transport-friendly format.
type Entry struct {
	ID                  string       `json:"id"`
	FilePath            string       `json:"filePath"`
	FileName            string       `json:"fileName"`
	FileSize            int64        `json:"fileSize"`
	Stage               string       `json:"stage"`
	DocumentType        string       `json:"documentType,omitempty"`
	DetectionConfidence float64      `json:"detectionConfidence,omitempty"`
	PageCount           int          `json:"pageCount,omitempty"`
	ExtractionFallback  bool         `json:"extractionFallback,omitempty"`
	Category            string       `json:"category,omitempty"`
	CategoryConfidence  float64      `json:"categoryConfidence,omitempty"`
	IndexRef            string       `json:"indexRef,omitempty"`
	Error               *EntryError  `json:"error,omitempty"`
	Attempts            int          `json:"attempts"`
	DurationMs          int64        `json:"durationMs,omitempty"`
	CreatedAt           string       `json:"createdAt,omitempty"`
	UpdatedAt           string       `json:"updatedAt,omitempty"`
}

// EntryError carries the structured failure record of a failed entry.
type EntryError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Stage   string `json:"stage"`
}

// EntryListResponse wraps a page of entries.
type EntryListResponse struct {
	Entries []Entry `json:"entries"`
	Limit   int     `json:"limit,omitempty"`
	Offset  int     `json:"offset,omitempty"`
}

// EntryResponse wraps a single entry.
type EntryResponse struct {
	Entry Entry `json:"entry"`
}

// Summary aggregates pipeline occupancy for status surfaces.
type Summary struct {
	Total       int     `json:"total"`
	Discovered  int     `json:"discovered"`
	InFlight    int     `json:"inFlight"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"successRate"`
}

// StatsResponse provides normalized per-stage counts.
type StatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// StageHealth mirrors readiness reporting for pipeline stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	LedgerPath   string             `json:"ledgerPath"`
	LockFilePath string             `json:"lockFilePath"`
	Summary      Summary            `json:"summary"`
	Stages       map[string]int     `json:"stages"`
	StageHealth  []StageHealth      `json:"stageHealth,omitempty"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
	LastError    string             `json:"lastError,omitempty"`
}
