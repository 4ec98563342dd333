package types

type ReportData struct {
	Title         string
	Timestamp     string
	ExecutionMode string
	Summary       *CopySummary
	Source        string
	Target        string
	Duration      string
	Statistics    ReportStatistics
	Operations    []OperationStatus
	HasFailures   bool
	HasSkipped    bool
}

type ReportStatistics struct {
	DefinitionsAttempted int
	VersionsAttempted    int
	SuccessRate          float64
	FailureRate          float64
	SkippedRate          float64
}

type OperationStatus struct {
	OperationID string
	Kind        string
	Item        string
	Status      string
	StatusClass string
	Detail      string
}
