package types

import "time"

// Tally counts terminal states for one operation type.
type Tally struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (t Tally) Attempted() int {
	return t.Created + t.Skipped + t.Failed
}

// Counters is the fold of an operation list.
type Counters struct {
	Definitions Tally `json:"definitions"`
	Versions    Tally `json:"versions"`
}

func (c Counters) CreatedImageDefinitions() int { return c.Definitions.Created }
func (c Counters) CreatedImageVersions() int    { return c.Versions.Created }
func (c Counters) SkippedImageVersions() int    { return c.Versions.Skipped }
func (c Counters) FailedOperations() int        { return c.Definitions.Failed + c.Versions.Failed }

// Aggregate folds the operations into counters. It is recomputed on every
// call; callers never keep running totals.
func Aggregate(operations []CopyOperation) Counters {
	var counters Counters
	for _, op := range operations {
		tally := &counters.Versions
		if op.Type == OperationCreateImageDefinition {
			tally = &counters.Definitions
		}

		switch op.Result {
		case ResultSuccess:
			tally.Created++
		case ResultSkipped:
			tally.Skipped++
		case ResultFailed:
			tally.Failed++
		}
	}
	return counters
}

type CopySummary struct {
	StartTime  time.Time       `json:"start_time"`
	EndTime    time.Time       `json:"end_time"`
	Source     GalleryContext  `json:"source"`
	Target     GalleryContext  `json:"target"`
	IsDryRun   bool            `json:"is_dry_run"`
	Operations []CopyOperation `json:"operations"`

	CreatedImageDefinitions int `json:"created_image_definitions"`
	CreatedImageVersions    int `json:"created_image_versions"`
	SkippedImageVersions    int `json:"skipped_image_versions"`
	FailedOperations        int `json:"failed_operations"`
}

// NewCopySummary builds a summary and derives its counters from operations.
func NewCopySummary(start, end time.Time, source, target GalleryContext, dryRun bool, operations []CopyOperation) *CopySummary {
	summary := &CopySummary{
		StartTime:  start,
		EndTime:    end,
		Source:     source,
		Target:     target,
		IsDryRun:   dryRun,
		Operations: operations,
	}
	summary.Recount()
	return summary
}

// Recount refreshes the four counters from the operation list.
func (s *CopySummary) Recount() {
	counters := Aggregate(s.Operations)
	s.CreatedImageDefinitions = counters.CreatedImageDefinitions()
	s.CreatedImageVersions = counters.CreatedImageVersions()
	s.SkippedImageVersions = counters.SkippedImageVersions()
	s.FailedOperations = counters.FailedOperations()
}

func (s *CopySummary) Counters() Counters {
	return Aggregate(s.Operations)
}

func (s *CopySummary) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

func (s *CopySummary) OperationsWith(result OperationResult) []CopyOperation {
	var ops []CopyOperation
	for _, op := range s.Operations {
		if op.Result == result {
			ops = append(ops, op)
		}
	}
	return ops
}

// ExitCode is 0 when no operation failed and 1 otherwise.
func (s *CopySummary) ExitCode() int {
	if Aggregate(s.Operations).FailedOperations() > 0 {
		return 1
	}
	return 0
}
