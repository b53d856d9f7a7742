package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"member2ldap/internal/dto"
)

const (
	outcomesSheet = "Участники"
	totalsSheet   = "Сводка"
)

var outcomeHeaders = []interface{}{"Логин", "DN", "Результат", "Причина"}

// ReportServiceInterface сохраняет итоги прогона в файл и возвращает его путь.
type ReportServiceInterface interface {
	Write(result *dto.RunResultDTO, params dto.RunParamsDTO) (string, error)
}

type reportService struct {
	dir    string
	logger *zap.Logger
}

func NewReportService(dir string, logger *zap.Logger) ReportServiceInterface {
	return &reportService{dir: dir, logger: logger}
}

func outcomeToRow(o dto.SyncOutcomeDTO) []interface{} {
	return []interface{}{o.UserID, o.DN, o.Kind.String(), o.Reason}
}

func (s *reportService) Write(result *dto.RunResultDTO, params dto.RunParamsDTO) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("не удалось создать каталог отчётов: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", outcomesSheet); err != nil {
		return "", err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("ошибка создания стиля: %w", err)
	}

	rows := make([][]interface{}, 0, len(result.Outcomes)+1)
	rows = append(rows, outcomeHeaders)
	for _, o := range result.Outcomes {
		rows = append(rows, outcomeToRow(o))
	}
	if err := writeRows(f, outcomesSheet, rows); err != nil {
		return "", err
	}
	if err := f.SetCellStyle(outcomesSheet, "A1", "D1", style); err != nil {
		return "", err
	}
	if err := setColWidths(f, outcomesSheet, map[string]float64{"A": 20, "B": 40, "C": 18, "D": 60}); err != nil {
		return "", err
	}

	if _, err := f.NewSheet(totalsSheet); err != nil {
		return "", err
	}
	totals := [][]interface{}{
		{"ID прогона", result.RunID},
		{"Сайт", params.Site},
		{"Base DN", params.BaseDN},
		{"Перезапись", params.Overwrite},
		{"Начало", result.StartedAt.Format("02.01.2006 15:04:05")},
		{"Окончание", result.FinishedAt.Format("02.01.2006 15:04:05")},
		{"Всего", result.Stats.Total},
		{"Создано", result.Stats.Created},
		{"Пропущено", result.Stats.Skipped},
		{"Перезаписано", result.Stats.Overwritten},
		{"Ошибок", result.Stats.Failed},
		{"Прерван", result.Aborted},
	}
	if err := writeRows(f, totalsSheet, totals); err != nil {
		return "", err
	}
	if err := f.SetCellStyle(totalsSheet, "A1", fmt.Sprintf("A%d", len(totals)), style); err != nil {
		return "", err
	}
	if err := setColWidths(f, totalsSheet, map[string]float64{"A": 20, "B": 40}); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, reportFileName(result))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("не удалось сохранить отчёт: %w", err)
	}
	s.logger.Info("[REPORT] Отчёт сохранён", zap.String("path", path))
	return path, nil
}

// reportFileName: время старта плюс ID прогона, чтобы два прогона в одну секунду не затёрли друг друга.
func reportFileName(result *dto.RunResultDTO) string {
	return fmt.Sprintf("sync_report_%s_%s.xlsx", result.StartedAt.Format("2006-01-02_150405"), result.RunID)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("лист %q, строка %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func setColWidths(f *excelize.File, sheet string, widths map[string]float64) error {
	for col, width := range widths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}
