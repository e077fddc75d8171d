package ledger

import (
	"strings"
	"time"
)

// Stage represents a file's position in the processing lifecycle.
type Stage string

const (
	StageDiscovered      Stage = "discovered"
	StageFormatDetection Stage = "format_detection"
	StageExtraction      Stage = "extraction"
	StageClassification  Stage = "classification"
	StageIndexing        Stage = "indexing"
	StageCompleted       Stage = "completed"
	StageFailed          Stage = "failed"
)

var stageOrder = []Stage{
	StageDiscovered,
	StageFormatDetection,
	StageExtraction,
	StageClassification,
	StageIndexing,
	StageCompleted,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(stageOrder)+1)
	for _, stage := range stageOrder {
		set[stage] = struct{}{}
	}
	set[StageFailed] = struct{}{}
	return set
}()

// AllStages returns the forward stage order followed by the failed terminal.
func AllStages() []Stage {
	cp := make([]Stage, len(stageOrder), len(stageOrder)+1)
	copy(cp, stageOrder)
	return append(cp, StageFailed)
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// Next returns the stage that follows the given one in forward order. The
// second return is false for terminal stages and for StageCompleted's
// predecessor overflow.
func Next(stage Stage) (Stage, bool) {
	for i, s := range stageOrder {
		if s == stage && i+1 < len(stageOrder) {
			return stageOrder[i+1], true
		}
	}
	return "", false
}

// IsTerminal reports whether the stage ends an entry's lifecycle.
func IsTerminal(stage Stage) bool {
	return stage == StageCompleted || stage == StageFailed
}

// DocumentType is the format-detection verdict for a file.
type DocumentType string

const (
	DocMachineReadable DocumentType = "machine_readable"
	DocScanned         DocumentType = "scanned"
	DocUnknown         DocumentType = "unknown"
)

// ParseDocumentType converts a string into a known DocumentType, defaulting
// to DocUnknown.
func ParseDocumentType(value string) DocumentType {
	switch DocumentType(strings.ToLower(strings.TrimSpace(value))) {
	case DocMachineReadable:
		return DocMachineReadable
	case DocScanned:
		return DocScanned
	default:
		return DocUnknown
	}
}

// ErrorDetail captures a structured failure record. Present on an entry if
// and only if the entry is in StageFailed.
type ErrorDetail struct {
	Kind    string
	Message string
	Stage   Stage
}

// Entry is the durable record for one physical file under management.
type Entry struct {
	ID       string
	FilePath string
	FileName string
	FileSize int64

	Stage Stage

	DocumentType        DocumentType
	DetectionConfidence float64

	ExtractedText      string
	PageCount          int
	ExtractionFallback bool

	Category           string
	CategoryConfidence float64

	IndexRef string

	Error *ErrorDetail

	// Attempts counts processing attempts within the current stage. It
	// resets to zero when the entry advances.
	Attempts int

	ProcessingDurationMs int64

	LeaseOwner string
	LeasedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal reports whether the entry has reached a terminal stage.
func (e *Entry) IsTerminal() bool {
	return IsTerminal(e.Stage)
}

// Leased reports whether a processing lease is currently held for the entry.
func (e *Entry) Leased() bool {
	return e.LeaseOwner != ""
}

// Summary holds aggregated entry counts for the status surfaces.
type Summary struct {
	Total      int
	Discovered int
	InFlight   int
	Completed  int
	Failed     int
}

// SuccessRate returns the completed share of terminal entries as a
// percentage, or zero when nothing is terminal yet.
func (s Summary) SuccessRate() float64 {
	terminal := s.Completed + s.Failed
	if terminal == 0 {
		return 0
	}
	return float64(s.Completed) / float64(terminal) * 100
}
