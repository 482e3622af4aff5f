package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quizforge/quiz-service/internal/cache"
	"github.com/quizforge/quiz-service/internal/models"
	"github.com/xuri/excelize/v2"
)

const bankCacheTTL = 24 * time.Hour

// BankService imports and serves question banks and table-question files.
// Bank imports are all-or-nothing: one malformed record rejects the whole
// file with a descriptive reason.
type BankService interface {
	ImportBank(ctx context.Context, reader io.Reader, filename string) (*models.QuestionBank, error)
	ImportTableFile(ctx context.Context, reader io.Reader, filename string) (*models.QuestionBank, error)
	GetBank(ctx context.Context, id string) (*models.QuestionBank, error)
	ListBanks(ctx context.Context) []*models.QuestionBank
}

type bankService struct {
	cache  cache.CacheService
	logger *slog.Logger

	mu    sync.RWMutex
	banks map[string]*models.QuestionBank
}

func NewBankService(cacheService cache.CacheService, logger *slog.Logger) BankService {
	return &bankService{
		cache:  cacheService,
		logger: logger,
		banks:  make(map[string]*models.QuestionBank),
	}
}

// ===== IMPORT OPERATIONS =====

func (s *bankService) ImportBank(ctx context.Context, reader io.Reader, filename string) (*models.QuestionBank, error) {
	s.logger.Info("Starting bank import", "filename", filename)

	ext := strings.ToLower(filepath.Ext(filename))

	var questions []models.QuestionRecord
	var err error
	switch ext {
	case ".json":
		questions, err = parseJSONBank(reader)
	case ".csv":
		questions, err = parseCSVBank(reader)
	case ".xlsx", ".xls":
		questions, err = parseExcelBank(reader)
	default:
		return nil, NewValidationError("file", "unsupported file format", ext)
	}
	if err != nil {
		return nil, err
	}

	bank := &models.QuestionBank{
		ID:        uuid.NewString(),
		Name:      strings.TrimSuffix(filepath.Base(filename), ext),
		Questions: questions,
	}
	s.store(ctx, bank)

	s.logger.Info("Bank imported", "bank_id", bank.ID, "questions", len(bank.Questions))
	return bank, nil
}

// ImportTableFile imports a file of fill-in-the-blank table questions.
// Files without a single table record are rejected.
func (s *bankService) ImportTableFile(ctx context.Context, reader io.Reader, filename string) (*models.QuestionBank, error) {
	s.logger.Info("Starting table file import", "filename", filename)

	questions, err := parseTableFile(reader)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTableQuestions, filename)
	}

	bank := &models.QuestionBank{
		ID:        uuid.NewString(),
		Name:      strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
		Questions: questions,
	}
	s.store(ctx, bank)

	s.logger.Info("Table file imported", "bank_id", bank.ID, "questions", len(bank.Questions))
	return bank, nil
}

func (s *bankService) store(ctx context.Context, bank *models.QuestionBank) {
	s.mu.Lock()
	s.banks[bank.ID] = bank
	s.mu.Unlock()

	// cache write failure is not fatal; the in-memory copy serves reads
	if err := s.cache.Set(ctx, bankCacheKey(bank.ID), bank, bankCacheTTL); err != nil {
		s.logger.Warn("failed to cache bank", "bank_id", bank.ID, "error", err)
	}
}

func (s *bankService) GetBank(ctx context.Context, id string) (*models.QuestionBank, error) {
	s.mu.RLock()
	bank, ok := s.banks[id]
	s.mu.RUnlock()
	if ok {
		return bank, nil
	}

	var cached models.QuestionBank
	if err := s.cache.Get(ctx, bankCacheKey(id), &cached); err == nil {
		s.mu.Lock()
		s.banks[id] = &cached
		s.mu.Unlock()
		return &cached, nil
	}

	return nil, ErrBankNotFound
}

func (s *bankService) ListBanks(ctx context.Context) []*models.QuestionBank {
	s.mu.RLock()
	defer s.mu.RUnlock()

	banks := make([]*models.QuestionBank, 0, len(s.banks))
	for _, bank := range s.banks {
		banks = append(banks, bank)
	}
	return banks
}

func bankCacheKey(id string) string {
	return "bank:" + id
}

// ===== JSON BANK PARSING =====

// requiredBankKeys are matched case-insensitively; a record must carry all
// of them (with the listed alternates) to be importable.
var requiredBankKeys = [][]string{
	{"id"},
	{"question", "questions"},
	{"options"},
	{"correctanswer", "correct_answer"},
}

func parseJSONBank(reader io.Reader) ([]models.QuestionRecord, error) {
	var raw []map[string]any
	if err := json.NewDecoder(reader).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: not a JSON array of question objects: %v", ErrImportRejected, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: file contains no questions", ErrImportRejected)
	}

	questions := make([]models.QuestionRecord, 0, len(raw))
	for i, obj := range raw {
		fields := make(map[string]any, len(obj))
		for key, value := range obj {
			fields[strings.ToLower(strings.TrimSpace(key))] = value
		}

		for _, alternates := range requiredBankKeys {
			if !hasAnyKey(fields, alternates) {
				return nil, fmt.Errorf("%w: record %d is missing required field %q",
					ErrImportRejected, i, strings.Join(alternates, "/"))
			}
		}

		record := models.QuestionRecord{
			ID:            stringify(fields["id"]),
			Question:      stringify(firstOf(fields, "question", "questions")),
			CorrectAnswer: stringify(firstOf(fields, "correctanswer", "correct_answer")),
			Options:       stringSlice(fields["options"]),
		}
		questions = append(questions, record)
	}
	return questions, nil
}

func hasAnyKey(fields map[string]any, keys []string) bool {
	for _, key := range keys {
		if _, ok := fields[key]; ok {
			return true
		}
	}
	return false
}

func firstOf(fields map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := fields[key]; ok {
			return value
		}
	}
	return nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; integral ids print without decimals
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func stringSlice(value any) []string {
	items, ok := value.([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringify(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ===== CSV / EXCEL BANK PARSING =====

func parseCSVBank(reader io.Reader) ([]models.QuestionRecord, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV: %v", ErrImportRejected, err)
	}
	return parseRowBank(records)
}

func parseExcelBank(reader io.Reader) ([]models.QuestionRecord, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %v", ErrImportRejected, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrImportRejected)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet: %v", ErrImportRejected, err)
	}
	return parseRowBank(rows)
}

// parseRowBank interprets tabular data with an id / question /
// correct_answer / options header. Options are pipe-separated in one cell.
func parseRowBank(rows [][]string) ([]models.QuestionRecord, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: need a header row and at least one data row", ErrImportRejected)
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}

	columnFor := func(alternates ...string) (int, bool) {
		for _, name := range alternates {
			if idx, ok := headerMap[name]; ok {
				return idx, true
			}
		}
		return 0, false
	}

	idCol, ok := columnFor("id")
	if !ok {
		return nil, fmt.Errorf("%w: missing required column %q", ErrImportRejected, "id")
	}
	questionCol, ok := columnFor("question", "questions")
	if !ok {
		return nil, fmt.Errorf("%w: missing required column %q", ErrImportRejected, "question")
	}
	answerCol, ok := columnFor("correctanswer", "correct_answer")
	if !ok {
		return nil, fmt.Errorf("%w: missing required column %q", ErrImportRejected, "correct_answer")
	}
	optionsCol, hasOptions := columnFor("options")

	cell := func(row []string, idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	questions := make([]models.QuestionRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record := models.QuestionRecord{
			ID:            cell(row, idCol),
			Question:      cell(row, questionCol),
			CorrectAnswer: cell(row, answerCol),
		}
		if record.ID == "" || record.Question == "" || record.CorrectAnswer == "" {
			return nil, fmt.Errorf("%w: row %d has empty required cells", ErrImportRejected, i+2)
		}
		if hasOptions {
			for _, opt := range strings.Split(cell(row, optionsCol), "|") {
				if trimmed := strings.TrimSpace(opt); trimmed != "" {
					record.Options = append(record.Options, trimmed)
				}
			}
		}
		questions = append(questions, record)
	}
	return questions, nil
}

// ===== TABLE FILE PARSING =====

type rawTableCell struct {
	Type string `json:"type"`
}

type rawTableRow struct {
	RowHeader string         `json:"rowHeader"`
	Cells     []rawTableCell `json:"cells"`
}

type rawTableData struct {
	Columns []string      `json:"columns"`
	Rows    []rawTableRow `json:"rows"`
}

type rawTableQuestion struct {
	ID           any               `json:"id"`
	QuizType     string            `json:"quizType"`
	Question     string            `json:"question"`
	TableData    *rawTableData     `json:"tableData"`
	Answers      map[string]string `json:"answers"`
	WrongOptions []string          `json:"wrongOptions"`
}

func parseTableFile(reader io.Reader) ([]models.QuestionRecord, error) {
	var raw []rawTableQuestion
	if err := json.NewDecoder(reader).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: not a JSON array of table questions: %v", ErrImportRejected, err)
	}

	questions := make([]models.QuestionRecord, 0, len(raw))
	for i, item := range raw {
		if item.QuizType != string(models.FillInTheBlankTable) {
			continue
		}
		if item.TableData == nil {
			return nil, fmt.Errorf("%w: table record %d has no tableData", ErrImportRejected, i)
		}

		answers := make(map[models.CellKey]string, len(item.Answers))
		for key, value := range item.Answers {
			parsed, err := models.ParseCellKey(key)
			if err != nil {
				return nil, fmt.Errorf("%w: table record %d: %v", ErrImportRejected, i, err)
			}
			answers[parsed] = value
		}

		table := &models.TableData{Columns: item.TableData.Columns}
		for _, row := range item.TableData.Rows {
			cells := make([]models.TableCell, len(row.Cells))
			for j, c := range row.Cells {
				kind := models.CellKind(c.Type)
				if kind != models.CellBlank && kind != models.CellData {
					return nil, fmt.Errorf("%w: table record %d has unknown cell type %q", ErrImportRejected, i, c.Type)
				}
				cells[j] = models.TableCell{Kind: kind}
			}
			table.Rows = append(table.Rows, models.TableRow{RowHeader: row.RowHeader, Cells: cells})
		}

		questions = append(questions, models.QuestionRecord{
			ID:           stringify(item.ID),
			Question:     item.Question,
			QuizType:     models.FillInTheBlankTable,
			Table:        table,
			Answers:      answers,
			WrongOptions: item.WrongOptions,
		})
	}
	return questions, nil
}
