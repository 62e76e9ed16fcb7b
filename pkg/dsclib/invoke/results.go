package invoke

import (
	"encoding/json"
	"time"
)

// ExecutionKind distinguishes a real apply from a simulated one.
type ExecutionKind string

const (
	ExecutionActual ExecutionKind = "Actual"
	ExecutionWhatIf ExecutionKind = "WhatIf"
)

// ExecutionInformation accompanies every per-resource result.
type ExecutionInformation struct {
	StartTime        time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	Duration          time.Duration `json:"duration"`
	Operation         string    `json:"operation"`
	ExecutionType     ExecutionKind `json:"executionType"`
	RestartRequired   bool      `json:"restartRequired,omitempty"`
	WhatIf            bool      `json:"whatIf,omitempty"`
}

// GetResult is the externally-tagged Resource|Group sum for `get`.
type GetResult struct {
	IsGroup      bool              `json:"-"`
	ActualState  json.RawMessage   `json:"actualState,omitempty"`
	Group        []GetResult       `json:"group,omitempty"`
	Info         ExecutionInformation `json:"-"`
}

// SetResult is the Resource|Group sum for `set`.
type SetResult struct {
	IsGroup           bool            `json:"-"`
	BeforeState       json.RawMessage `json:"beforeState,omitempty"`
	AfterState        json.RawMessage `json:"afterState,omitempty"`
	ChangedProperties []string        `json:"changedProperties,omitempty"`
	Group             []SetResult     `json:"group,omitempty"`
	Info              ExecutionInformation `json:"-"`
}

// TestResult is the Resource|Group sum for `test`.
type TestResult struct {
	IsGroup         bool            `json:"-"`
	DesiredState    json.RawMessage `json:"desiredState,omitempty"`
	ActualState     json.RawMessage `json:"actualState,omitempty"`
	InDesiredState  bool            `json:"inDesiredState"`
	DiffProperties  []string        `json:"diffProperties,omitempty"`
	Group           []TestResult    `json:"group,omitempty"`
	Info            ExecutionInformation `json:"-"`
}

// DeleteResultKind discriminates the DeleteResult sum.
type DeleteResultKind string

const (
	DeleteActualPerformed DeleteResultKind = "ActualPerformed"
	DeleteWhatIf          DeleteResultKind = "WhatIf"
	DeleteSyntheticWhatIf DeleteResultKind = "SyntheticWhatIf"
)

// DeleteResult is {ActualPerformed} | {WhatIf{metadata}} | {SyntheticWhatIf(TestResult)}.
type DeleteResult struct {
	Kind             DeleteResultKind
	WhatIfMetadata   json.RawMessage
	SyntheticTest    *TestResult
	Info             ExecutionInformation
}

// ExportResult enumerates every observed instance of a resource type.
type ExportResult struct {
	ActualState []json.RawMessage
	Info        ExecutionInformation
}

// ValidateResult is the provider's validate response.
type ValidateResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// ResolveResult is the provider's resolve response.
type ResolveResult struct {
	Configuration json.RawMessage `json:"configuration"`
	Parameters    json.RawMessage `json:"parameters,omitempty"`
}
