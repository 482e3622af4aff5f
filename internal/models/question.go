package models

import (
	"fmt"
	"strconv"
	"strings"
)

type QuizType string

const (
	MultipleChoice      QuizType = "multipleChoice"
	Identification      QuizType = "identification"
	TrueOrFalse         QuizType = "trueOrFalse"
	FillInTheBlankTable QuizType = "fillInTheBlankTable"
)

// SectionPrecedence is the fixed order in which typed sections are presented.
// Adding a question type means adding one entry here.
var SectionPrecedence = []QuizType{
	MultipleChoice,
	Identification,
	TrueOrFalse,
	FillInTheBlankTable,
}

func (t QuizType) IsValid() bool {
	switch t {
	case MultipleChoice, Identification, TrueOrFalse, FillInTheBlankTable:
		return true
	}
	return false
}

// CellKey identifies one fillable cell of a table question by position.
// It replaces the "row_col" string keys used by raw bank files; the string
// form is still accepted on import.
type CellKey struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (k CellKey) String() string {
	return fmt.Sprintf("%d_%d", k.Row, k.Col)
}

func (k CellKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *CellKey) UnmarshalText(text []byte) error {
	parsed, err := ParseCellKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseCellKey parses the raw "row_col" form, e.g. "0_1".
func ParseCellKey(s string) (CellKey, error) {
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return CellKey{}, fmt.Errorf("invalid cell key %q: expected row_col", s)
	}
	row, err := strconv.Atoi(parts[0])
	if err != nil {
		return CellKey{}, fmt.Errorf("invalid cell key %q: bad row: %w", s, err)
	}
	col, err := strconv.Atoi(parts[1])
	if err != nil {
		return CellKey{}, fmt.Errorf("invalid cell key %q: bad column: %w", s, err)
	}
	return CellKey{Row: row, Col: col}, nil
}

type CellKind string

const (
	CellBlank CellKind = "blank"
	CellData  CellKind = "data"
)

type TableCell struct {
	Kind CellKind `json:"type"`
}

type TableRow struct {
	RowHeader string      `json:"row_header"`
	Cells     []TableCell `json:"cells"`
}

// TableData describes the layout of a fill-in-the-blank table question.
type TableData struct {
	Columns []string   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

// QuestionRecord is one quiz item from an imported bank. QuizType is not
// part of the raw bank; the session builder assigns it when records are
// sliced into typed sections.
type QuestionRecord struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	CorrectAnswer string   `json:"correct_answer"`
	Options       []string `json:"options,omitempty"`
	QuizType      QuizType `json:"quiz_type,omitempty"`

	// Table question fields.
	Table        *TableData         `json:"table_data,omitempty"`
	Answers      map[CellKey]string `json:"answers,omitempty"`
	WrongOptions []string           `json:"wrong_options,omitempty"`
	WithOptions  bool               `json:"with_options,omitempty"`
}

// QuestionBank is a validated, imported question collection.
type QuestionBank struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Questions []QuestionRecord `json:"questions"`
}

// CorrectAnswers returns every correct answer string in the bank, in order.
// This is the candidate pool for distractor generation.
func (b *QuestionBank) CorrectAnswers() []string {
	answers := make([]string, 0, len(b.Questions))
	for _, q := range b.Questions {
		if q.CorrectAnswer != "" {
			answers = append(answers, q.CorrectAnswer)
		}
	}
	return answers
}
