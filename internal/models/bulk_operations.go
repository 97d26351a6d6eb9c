package models

// ImportResult summarizes a roster import. Errors holds one entry per rejected row.
type ImportResult struct {
	RecordsProcessed int      `json:"records_processed"`
	Imported         int      `json:"imported"`
	Skipped          int      `json:"skipped"`
	Errors           []string `json:"errors"`
}

// DispatchResult summarizes an invitation send. Errors holds one entry per failed recipient.
type DispatchResult struct {
	Sent   int      `json:"sent"`
	Errors []string `json:"errors"`
}
