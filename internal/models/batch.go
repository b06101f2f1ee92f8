package models

// OutcomeStatus is the result of uploading a single file.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
)

// UploadItem is one renamed file ready for upload.
type UploadItem struct {
	FileName string
	Content  []byte
}

// FolderFiles groups upload items by their taxonomy path. A batch is an
// ordered slice of these so outcome order is stable.
type FolderFiles struct {
	Path  string
	Files []UploadItem
}

// PerFileOutcome records what happened to one file in a batch.
type PerFileOutcome struct {
	FileName   string         `json:"file" msgpack:"file"`
	FolderPath string         `json:"folder" msgpack:"folder"`
	Status     OutcomeStatus  `json:"status" msgpack:"status"`
	Receipt    *UploadReceipt `json:"result,omitempty" msgpack:"result,omitempty"`
	Error      string         `json:"error,omitempty" msgpack:"error,omitempty"`
}

// BatchResult aggregates the outcomes of a batch upload.
type BatchResult struct {
	SuccessCount int              `json:"success" msgpack:"success"`
	FailedCount  int              `json:"failed" msgpack:"failed"`
	Outcomes     []PerFileOutcome `json:"details" msgpack:"details"`
}

// Add appends an outcome and updates the counters.
func (b *BatchResult) Add(o PerFileOutcome) {
	if o.Status == OutcomeSuccess {
		b.SuccessCount++
	} else {
		b.FailedCount++
	}
	b.Outcomes = append(b.Outcomes, o)
}
