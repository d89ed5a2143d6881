package domain

import "time"

type FileType string

const (
	FileTypeEmail   FileType = "email"
	FileTypeJSON    FileType = "json"
	FileTypePDF     FileType = "pdf"
	FileTypeUnknown FileType = "unknown"
)

type BusinessIntent string

const (
	IntentRFQ        BusinessIntent = "RFQ"
	IntentComplaint  BusinessIntent = "Complaint"
	IntentInvoice    BusinessIntent = "Invoice"
	IntentRegulation BusinessIntent = "Regulation"
	IntentFraudRisk  BusinessIntent = "Fraud Risk"
	IntentUnknown    BusinessIntent = "Unknown"
)

type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusProcessed  ProcessingStatus = "processed"
	StatusCompleted  ProcessingStatus = "completed"
)

// Classification is produced once per upload and immutable thereafter.
type Classification struct {
	FileType         FileType       `json:"file_type"`
	BusinessIntent   BusinessIntent `json:"business_intent"`
	Confidence       float64        `json:"confidence"`
	Reasoning        string         `json:"reasoning"`
	Filename         string         `json:"filename,omitempty"`
	DetectedFileType FileType       `json:"detected_file_type,omitempty"`
}

// AgentResult is the output of exactly one type-specific extraction agent.
type AgentResult struct {
	ExtractedData map[string]any `json:"extracted_data"`
	Metadata      map[string]any `json:"metadata"`
	Flags         []string       `json:"flags"`
	Confidence    float64        `json:"confidence"`
}

type ProcessingRecord struct {
	ID             int64            `json:"id"`
	Filename       string           `json:"filename"`
	FileType       FileType         `json:"file_type"`
	BusinessIntent BusinessIntent   `json:"business_intent"`
	Status         ProcessingStatus `json:"status"`
	ExtractedData  map[string]any   `json:"extracted_data"`
	Metadata       map[string]any   `json:"metadata"`
	ActionsTaken   []string         `json:"actions_taken"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// RecordUpdate carries a partial update to a stored record. Nil fields are
// left untouched; ExtractedData and Metadata are shallow-merged into the
// stored maps, ActionsTaken is appended and deduplicated.
type RecordUpdate struct {
	Status        *ProcessingStatus
	ExtractedData map[string]any
	Metadata      map[string]any
	ActionsTaken  []string
}

type RecordFilter struct {
	Status         string
	FileType       string
	BusinessIntent string
	Limit          int
}

// ProcessingOutcome is the upload pipeline answer returned to the caller.
type ProcessingOutcome struct {
	ProcessingID   int64          `json:"processing_id"`
	Classification Classification `json:"classification"`
	AgentResult    *AgentResult   `json:"agent_result"`
	ActionsTaken   []string       `json:"actions_taken"`
}

type Statistics struct {
	TotalProcessed  int64            `json:"total_processed"`
	StatusBreakdown map[string]int64 `json:"status_breakdown"`
	FileTypes       map[string]int64 `json:"file_type_breakdown"`
	BusinessIntents map[string]int64 `json:"business_intent_breakdown"`
	RecentLast24h   int64            `json:"recent_24h"`
	GeneratedAt     time.Time        `json:"generated_at"`
}
