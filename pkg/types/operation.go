package types

import "time"

type OperationType string

const (
	OperationCreateImageDefinition OperationType = "CreateImageDefinition"
	OperationCreateImageVersion    OperationType = "CreateImageVersion"
)

type OperationResult string

const (
	ResultSuccess OperationResult = "Success"
	ResultSkipped OperationResult = "Skipped"
	ResultFailed  OperationResult = "Failed"
)

const (
	SkipReasonDefinitionExists = "Image definition already exists in target gallery"
	SkipReasonVersionExists    = "Image version already exists in target gallery"
	SkipReasonCMKEncryption    = "CMK encryption not supported for cross-subscription copy"
)

// CopyOperation records one attempted or simulated action. It is built once
// and appended to the run's operation list; nothing mutates it afterwards.
type CopyOperation struct {
	OperationID    string          `json:"operation_id"`
	Type           OperationType   `json:"type"`
	DefinitionName string          `json:"definition_name"`
	VersionName    string          `json:"version_name,omitempty"`
	Result         OperationResult `json:"result"`
	SkipReason     string          `json:"skip_reason,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	ErrorCode      string          `json:"error_code,omitempty"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
}

// Target renders the item the operation was about, "def" or "def/version".
func (o CopyOperation) Target() string {
	if o.Type == OperationCreateImageVersion {
		return o.DefinitionName + "/" + o.VersionName
	}
	return o.DefinitionName
}
