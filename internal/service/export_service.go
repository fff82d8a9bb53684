package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
)

// Форматы выгрузки
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

var resultHeaders = []string{"Episode", "Date", "Theme", "Participant", "Role", "Outcome", "Sweep"}

// ExportService выгружает результаты и сводные таблицы в CSV или Excel
type ExportService struct {
	results      repository.ResultRepository
	participants repository.ParticipantRepository
	episodes     repository.EpisodeRepository
}

// NewExportService создает сервис выгрузки
func NewExportService(
	results repository.ResultRepository,
	participants repository.ParticipantRepository,
	episodes repository.EpisodeRepository,
) *ExportService {
	return &ExportService{results: results, participants: participants, episodes: episodes}
}

// ValidateExportFormat проверяет формат выгрузки
func ValidateExportFormat(format string) error {
	switch format {
	case ExportCSV, ExportXLSX:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownExportType, format)
}

// Export пишет выгрузку за диапазон дат в w
func (s *ExportService) Export(ctx context.Context, w io.Writer, format string, dateRange entity.DateRange) error {
	if err := ValidateExportFormat(format); err != nil {
		return err
	}
	if err := dateRange.Validate(); err != nil {
		return err
	}

	rows, err := s.resultRows(ctx, dateRange)
	if err != nil {
		return err
	}
	if format == ExportCSV {
		return writeCSV(w, rows)
	}

	rogues, err := s.participants.RogueSummaries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rogue summaries: %w", err)
	}
	guests, err := s.participants.GuestSummaries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load guest summaries: %w", err)
	}
	episodes, err := s.episodes.Summaries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load episode summaries: %w", err)
	}
	return writeXLSX(w, rows, rogues, guests, episodes)
}

// resultRows строит строки результатов в хронологическом порядке
func (s *ExportService) resultRows(ctx context.Context, dateRange entity.DateRange) ([][]string, error) {
	participants, err := s.participants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	byID := make(map[uint]*entity.Participant, len(participants))
	for i := range participants {
		byID[participants[i].ID] = &participants[i]
	}

	results, err := s.results.List(ctx, repository.ResultFilter{DateRange: dateRange})
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	rows := make([][]string, 0, len(results))
	for i := range results {
		r := &results[i]
		name, role := "", "Guest"
		if p, ok := byID[r.ParticipantID]; ok {
			name = p.Name
			if p.IsRogue {
				role = "Rogue"
			}
		}
		var epNum, date, theme, sweep string
		if r.Episode != nil {
			epNum = strconv.Itoa(r.Episode.EpNum)
			date = r.Episode.Date.Format(entity.DateLayout)
			theme = r.Episode.ThemeName()
			if kind, ok := r.Episode.SweepKind(); ok {
				sweep = string(kind)
			}
		}
		rows = append(rows, []string{
			epNum, date, sanitizeForExcel(theme), sanitizeForExcel(name), role, r.Outcome().String(), sweep,
		})
	}
	return rows, nil
}

func writeCSV(w io.Writer, rows [][]string) error {
	// BOM для корректного отображения UTF-8 в Excel
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(resultHeaders); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

// writeXLSX пишет книгу с листами результатов и сводок, используя StreamWriter
func writeXLSX(
	w io.Writer,
	rows [][]string,
	rogues []repository.RogueSummary,
	guests []repository.GuestSummary,
	episodes []repository.EpisodeSummary,
) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Results"); err != nil {
		return err
	}
	resultRows := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if n, err := strconv.Atoi(row[0]); err == nil {
			values[0] = n
		}
		resultRows = append(resultRows, values)
	}
	if err := streamSheet(f, "Results", toInterfaces(resultHeaders), resultRows); err != nil {
		return err
	}

	rogueRows := make([][]interface{}, 0, len(rogues))
	for _, r := range rogues {
		rogueRows = append(rogueRows, []interface{}{
			sanitizeForExcel(r.Name), formatOptionalDate(r.RogueStartDate), formatOptionalDate(r.RogueEndDate),
			r.Correct, r.Incorrect,
		})
	}
	if err := addSheet(f, "Rogues", []interface{}{"Name", "Start", "End", "Correct", "Incorrect"}, rogueRows); err != nil {
		return err
	}

	guestRows := make([][]interface{}, 0, len(guests))
	for _, g := range guests {
		guestRows = append(guestRows, []interface{}{sanitizeForExcel(g.Name), g.NumAppearances, g.Correct, g.Incorrect})
	}
	if err := addSheet(f, "Guests", []interface{}{"Name", "Appearances", "Correct", "Incorrect"}, guestRows); err != nil {
		return err
	}

	episodeRows := make([][]interface{}, 0, len(episodes))
	for _, e := range episodes {
		episodeRows = append(episodeRows, []interface{}{
			e.EpNum, e.Date.Format(entity.DateLayout), e.NumItems,
			sanitizeForExcel(derefString(e.Theme)), sanitizeForExcel(derefString(e.Presenter)),
			derefString(e.Sweep), e.Correct, e.Incorrect,
		})
	}
	episodeHeaders := []interface{}{"Episode", "Date", "Items", "Theme", "Presenter", "Sweep", "Correct", "Incorrect"}
	if err := addSheet(f, "Episodes", episodeHeaders, episodeRows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		log.Printf("[ExportService] Ошибка записи Excel: %v", err)
		return err
	}
	return nil
}

func addSheet(f *excelize.File, name string, headers []interface{}, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	return streamSheet(f, name, headers, rows)
}

func streamSheet(f *excelize.File, name string, headers []interface{}, rows [][]interface{}) error {
	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("failed to create stream writer for %s: %w", name, err)
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, name, err)
		}
	}
	return sw.Flush()
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func formatOptionalDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(entity.DateLayout)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
