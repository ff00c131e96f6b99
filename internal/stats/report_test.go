package stats

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/finquiz/internal/bank"
	"github.com/verte-zerg/finquiz/internal/model"
	"github.com/verte-zerg/finquiz/internal/store"
)

func TestBuildReport(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "finquiz.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	b, err := bank.Sample()
	if err != nil {
		t.Fatalf("sample bank: %v", err)
	}

	for _, attempt := range []struct {
		id      string
		correct bool
	}{
		{"w9-01", true}, {"w9-02", false}, {"w9-02", false}, {"w1-01", false}, {"removed-q", false},
	} {
		if err := st.Record(attempt.id, attempt.correct); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	ctx := context.Background()
	base := time.Unix(0, 0).UTC()
	for i := 0; i < 3; i++ {
		rec := model.SessionRecord{
			ID:        fmt.Sprintf("s%d", i),
			Mode:      model.ModeWeekly,
			Weeks:     []string{"9"},
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			EndedAt:   base.Add(time.Duration(i)*time.Hour + time.Minute),
			Attempted: 3,
			Correct:   i,
		}
		if err := st.InsertSession(ctx, rec); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}

	report, err := BuildReport(ctx, st, b, model.StatsConfig{Last: 2, MissedTop: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 || report.Sessions[0].ID != "s1" || report.Sessions[1].ID != "s2" {
		t.Fatalf("unexpected sessions: %+v", report.Sessions)
	}
	if report.Totals.TotalSolved != 5 || report.Totals.TotalCorrect != 1 || report.Seen != 4 {
		t.Fatalf("unexpected totals: %+v seen %d", report.Totals, report.Seen)
	}
	if len(report.Missed) != 2 || report.Missed[0].Stat.ID != "w9-02" {
		t.Fatalf("unexpected missed list: %+v", report.Missed)
	}
	if len(report.Weeks) != len(b.WeekKeys()) {
		t.Fatalf("expected one row per week, got %d", len(report.Weeks))
	}

	var buf bytes.Buffer
	if err := RenderReport(&buf, report); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Summary", "Accuracy: 20%", "Per-Week", "Most Missed", "w9-02", "Sessions", "2/3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}
