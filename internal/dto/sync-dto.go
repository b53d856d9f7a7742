package dto

import (
	"time"

	"member2ldap/pkg/types"
)

type OutcomeKind int

const (
	OutcomeCreated OutcomeKind = iota + 1
	OutcomeSkippedExisting
	OutcomeOverwritten
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCreated:
		return "created"
	case OutcomeSkippedExisting:
		return "skipped_existing"
	case OutcomeOverwritten:
		return "overwritten"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// SyncOutcomeDTO - итог обработки одного участника. Reason заполнен только для OutcomeFailed.
type SyncOutcomeDTO struct {
	UserID string
	DN     string
	Kind   OutcomeKind
	Reason string
	Err    error
}

// RunParamsDTO - параметры одного прогона.
type RunParamsDTO struct {
	Site         string
	BindDN       string
	BindPassword string
	BaseDN       string
	Overwrite    bool
}

// RunResultDTO - результат завершённого прогона.
type RunResultDTO struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []SyncOutcomeDTO
	Stats      types.SyncStats
	ReportPath string
	// Aborted - прогон прерван фатальной ошибкой, Outcomes неполные
	Aborted bool
}
