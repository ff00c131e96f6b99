package bank

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/finquiz/internal/model"
)

func TestSampleBankIsValid(t *testing.T) {
	b, err := Sample()
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("expected built-in bank to validate: %v", err)
	}
	if len(b.ByWeeks([]string{"9"})) != 3 {
		t.Fatalf("expected 3 week 9 questions")
	}
}

func TestParseJSONTypesAndAnswers(t *testing.T) {
	data := []byte(`{
		"weeks": [{"key": "1", "name": "Week 1"}],
		"questions": [
			{"id": 7, "week": "1", "type": "multiple", "question": "q1", "options": ["a", "b"], "answer": 1},
			{"id": "x", "week": "1", "type": "ox", "question": "q2", "answer": true},
			{"id": "y", "week": "1", "type": "fill", "question": "q3", "answer": "Seoul", "alternatives": ["서울"]}
		]
	}`)
	b, err := Parse(data, "json")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if b.Questions[0].ID != "7" || b.Questions[0].Type != model.MultipleChoice || b.Questions[0].AnswerIndex != 1 {
		t.Fatalf("unexpected multiple-choice question: %+v", b.Questions[0])
	}
	if b.Questions[1].Type != model.Boolean || !b.Questions[1].AnswerBool {
		t.Fatalf("unexpected boolean question: %+v", b.Questions[1])
	}
	if b.Questions[2].Type != model.FreeText || b.Questions[2].AnswerText != "Seoul" || len(b.Questions[2].Alternatives) != 1 {
		t.Fatalf("unexpected free-text question: %+v", b.Questions[2])
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.toml")
	content := `
[[weeks]]
key = "9"
name = "Week 9"

[[questions]]
id = "a"
week = "9"
type = "multiple"
question = "pick"
options = ["x", "y", "z"]
answer = 2

[[questions]]
id = "b"
week = "9"
type = "ox"
question = "true?"
answer = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	b, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(b.Questions) != 2 || b.Questions[0].AnswerIndex != 2 {
		t.Fatalf("unexpected questions: %+v", b.Questions)
	}
	if b.Week("9").Name != "Week 9" {
		t.Fatalf("expected week name from file")
	}
}

func TestByWeeksKeepsBankOrderAndSkipsDuplicates(t *testing.T) {
	b := New(nil, []model.Question{
		{ID: "1", Week: "a"},
		{ID: "2", Week: "b"},
		{ID: "3", Week: "a"},
		{ID: "1", Week: "a"},
	})
	got := b.ByWeeks([]string{"a", "b"})
	ids := make([]string, 0, len(got))
	for _, q := range got {
		ids = append(ids, q.ID)
	}
	if strings.Join(ids, ",") != "1,2,3" {
		t.Fatalf("unexpected order: %v", ids)
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	b := New([]model.Week{{Key: "1"}}, []model.Question{
		{ID: "a", Week: "1", Type: model.MultipleChoice, Text: "q", Options: []string{"x", "y"}, AnswerIndex: 5},
		{ID: "a", Week: "2", Type: model.FreeText, Text: "q"},
	})
	err := b.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"out of range", "duplicate id", "unknown week", "free-text answer is empty"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestWeekFallbackName(t *testing.T) {
	b := New(nil, nil)
	if got := b.Week("11a").Name; got != "Week 11a" {
		t.Fatalf("unexpected fallback name %q", got)
	}
}

func TestWeekKeysIncludesUndeclaredTags(t *testing.T) {
	b := New([]model.Week{{Key: "3"}, {Key: "1"}}, []model.Question{{ID: "a", Week: "1"}, {ID: "b", Week: "7"}})
	got := b.WeekKeys()
	if len(got) != 3 || got[0] != "3" || got[1] != "1" || got[2] != "7" {
		t.Fatalf("unexpected week keys %v", got)
	}
}
