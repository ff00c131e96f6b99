// Package bank loads the question bank from JSON or TOML files.
package bank

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/finquiz/internal/model"
)

//go:embed sample.json
var sampleBank []byte

// Bank is the read-only question collection plus week display names.
type Bank struct {
	Questions []model.Question
	Weeks     []model.Week

	weekIndex map[string]int
}

type fileBank struct {
	Weeks     []fileWeek     `json:"weeks" toml:"weeks"`
	Questions []fileQuestion `json:"questions" toml:"questions"`
}

type fileWeek struct {
	Key       string `json:"key" toml:"key"`
	Name      string `json:"name" toml:"name"`
	ShortName string `json:"shortName" toml:"short-name"`
}

type fileQuestion struct {
	ID           any      `json:"id" toml:"id"`
	Week         string   `json:"week" toml:"week"`
	Type         string   `json:"type" toml:"type"`
	Question     string   `json:"question" toml:"question"`
	Options      []string `json:"options" toml:"options"`
	Answer       any      `json:"answer" toml:"answer"`
	Alternatives []string `json:"alternatives" toml:"alternatives"`
	Explanation  string   `json:"explanation" toml:"explanation"`
	Tip          string   `json:"tip" toml:"tip"`
}

// New builds a bank from already-decoded records.
func New(weeks []model.Week, questions []model.Question) *Bank {
	b := &Bank{Questions: questions, Weeks: weeks}
	b.indexWeeks()
	return b
}

// Sample returns the built-in bank.
func Sample() (*Bank, error) {
	b, err := Parse(sampleBank, "json")
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in bank: %w", err)
	}
	return b, nil
}

// Load reads a bank file. The format is picked from the file extension.
// An empty path loads the built-in bank.
func Load(path string, validate bool) (*Bank, error) {
	var (
		b   *Bank
		err error
	)
	if path == "" {
		b, err = Sample()
	} else {
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		b, err = Parse(data, formatFor(path))
	}
	if err != nil {
		return nil, err
	}
	if validate {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func formatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "json"
}

// Parse decodes a bank in the given format ("json" or "toml").
func Parse(data []byte, format string) (*Bank, error) {
	var fb fileBank
	switch format {
	case "toml":
		if _, err := toml.Decode(string(data), &fb); err != nil {
			return nil, fmt.Errorf("failed to decode bank: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &fb); err != nil {
			return nil, fmt.Errorf("failed to decode bank: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown bank format %q", format)
	}

	b := &Bank{
		Questions: make([]model.Question, 0, len(fb.Questions)),
		Weeks:     make([]model.Week, 0, len(fb.Weeks)),
	}
	for _, w := range fb.Weeks {
		b.Weeks = append(b.Weeks, model.Week{Key: w.Key, Name: w.Name, ShortName: w.ShortName})
	}
	for i, fq := range fb.Questions {
		q, err := convertQuestion(fq)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		b.Questions = append(b.Questions, q)
	}
	b.indexWeeks()
	return b, nil
}

func convertQuestion(fq fileQuestion) (model.Question, error) {
	q := model.Question{
		ID:           idString(fq.ID),
		Week:         fq.Week,
		Type:         parseType(fq.Type),
		Text:         fq.Question,
		Options:      fq.Options,
		Alternatives: fq.Alternatives,
		Explanation:  fq.Explanation,
		Tip:          fq.Tip,
	}
	switch q.Type {
	case model.Boolean:
		v, ok := fq.Answer.(bool)
		if !ok {
			return q, fmt.Errorf("boolean answer must be true or false, got %v", fq.Answer)
		}
		q.AnswerBool = v
	case model.FreeText:
		q.AnswerText = scalarString(fq.Answer)
	default:
		idx, ok := intValue(fq.Answer)
		if !ok {
			return q, fmt.Errorf("multiple-choice answer must be an option index, got %v", fq.Answer)
		}
		q.AnswerIndex = idx
	}
	return q, nil
}

func parseType(s string) model.QuestionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ox", "boolean", "bool":
		return model.Boolean
	case "fill", "text", "free-text":
		return model.FreeText
	default:
		return model.MultipleChoice
	}
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func idString(v any) string {
	if n, ok := intValue(v); ok {
		return strconv.Itoa(n)
	}
	return scalarString(v)
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

func (b *Bank) indexWeeks() {
	b.weekIndex = make(map[string]int, len(b.Weeks))
	for i, w := range b.Weeks {
		b.weekIndex[w.Key] = i
	}
}

// ByWeeks returns the questions tagged with any of the weeks, in bank order.
// A repeated id is returned once.
func (b *Bank) ByWeeks(weeks []string) []*model.Question {
	wanted := make(map[string]struct{}, len(weeks))
	for _, w := range weeks {
		wanted[w] = struct{}{}
	}
	seen := make(map[string]struct{})
	var out []*model.Question
	for i := range b.Questions {
		q := &b.Questions[i]
		if _, ok := wanted[q.Week]; !ok {
			continue
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

// Week returns the display info for a week tag. Unknown tags get a
// generated name.
func (b *Bank) Week(key string) model.Week {
	if i, ok := b.weekIndex[key]; ok {
		return b.Weeks[i]
	}
	return model.Week{Key: key, Name: "Week " + key, ShortName: key}
}

// WeekNames joins the display names for the given tags.
func (b *Bank) WeekNames(keys []string) string {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, b.Week(k).Name)
	}
	return strings.Join(names, ", ")
}

// CountByWeek returns the number of questions per week tag.
func (b *Bank) CountByWeek() map[string]int {
	counts := make(map[string]int, len(b.Weeks))
	for _, q := range b.Questions {
		counts[q.Week]++
	}
	return counts
}

// WeekKeys returns the defined week tags in order, followed by any tags that
// only appear on questions.
func (b *Bank) WeekKeys() []string {
	keys := make([]string, 0, len(b.Weeks))
	seen := make(map[string]struct{}, len(b.Weeks))
	for _, w := range b.Weeks {
		if _, ok := seen[w.Key]; ok {
			continue
		}
		seen[w.Key] = struct{}{}
		keys = append(keys, w.Key)
	}
	for _, q := range b.Questions {
		if _, ok := seen[q.Week]; ok {
			continue
		}
		seen[q.Week] = struct{}{}
		keys = append(keys, q.Week)
	}
	return keys
}

// Question looks up a question by id.
func (b *Bank) Question(id string) (*model.Question, bool) {
	for i := range b.Questions {
		if b.Questions[i].ID == id {
			return &b.Questions[i], true
		}
	}
	return nil, false
}
