package services

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"member2ldap/internal/dto"
	apperrors "member2ldap/pkg/errors"
	"member2ldap/pkg/types"
)

func TestReportService_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	started := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	result := &dto.RunResultDTO{
		RunID:      "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Outcomes: []dto.SyncOutcomeDTO{
			{UserID: "akelly", DN: "uid=akelly,o=users", Kind: dto.OutcomeCreated},
			{UserID: "bob", DN: "uid=bob,o=users", Kind: dto.OutcomeFailed, Reason: apperrors.ErrMissingCredential.Error(), Err: errors.New("x")},
		},
		Stats: types.SyncStats{Total: 2, Created: 1, Failed: 1},
	}

	path, err := NewReportService(dir, zap.NewNop()).Write(result, dto.RunParamsDTO{Site: "portal", BaseDN: "o=users"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sync_report_2026-03-01_103000_run-1.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(outcomesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Логин", "DN", "Результат", "Причина"}, rows[0])
	assert.Equal(t, []string{"akelly", "uid=akelly,o=users", "created"}, rows[1][:3])
	assert.Equal(t, []string{"bob", "uid=bob,o=users", "failed", "missing credential"}, rows[2])

	failed, err := f.GetCellValue(totalsSheet, "B11")
	require.NoError(t, err)
	assert.Equal(t, "1", failed)
	runID, err := f.GetCellValue(totalsSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)
	aborted, err := f.GetCellValue(totalsSheet, "B12")
	require.NoError(t, err)
	assert.Equal(t, "FALSE", aborted)
}

func TestReportService_SameSecondRunsDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	started := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	svc := NewReportService(dir, zap.NewNop())

	first, err := svc.Write(&dto.RunResultDTO{RunID: "run-a", StartedAt: started, FinishedAt: started}, dto.RunParamsDTO{})
	require.NoError(t, err)
	second, err := svc.Write(&dto.RunResultDTO{RunID: "run-b", StartedAt: started, FinishedAt: started}, dto.RunParamsDTO{})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.FileExists(t, first)
	assert.FileExists(t, second)
}
