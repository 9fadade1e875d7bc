package trace

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/milk9111/starmaze/grid"
	"github.com/milk9111/starmaze/pursuit"
)

func TestTraceFileRecordsSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "pursuit.jsonl.zst")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	g, err := grid.FromRows([]string{".....", ".....", "....."})
	if err != nil {
		t.Fatal(err)
	}
	s, err := pursuit.NewSession(g, pursuit.WithObserver(w.Observer()))
	if err != nil {
		t.Fatal(err)
	}
	agent := grid.Cell{X: 0, Y: 0}
	for stars := 0; stars < 4; stars++ {
		res := s.Tick(pursuit.TickInput{Agent: agent, Target: grid.Cell{X: 4, Y: 2}, Progress: stars})
		agent = res.Next
	}
	s.Tick(pursuit.TickInput{Agent: grid.Cell{X: -1, Y: 0}, Target: grid.Cell{X: 4, Y: 2}, Progress: 3, Hidden: true, Hasted: true})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}

	var got []Entry
	if err := ReadFile(path, func(e Entry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(got))
	}
	for i, e := range got {
		if e.Tick != i+1 {
			t.Fatalf("entry %d has tick %d", i, e.Tick)
		}
	}
	if got[0].Status != "moved" || !got[0].Replanned || got[0].Tier != "basic" {
		t.Fatalf("unexpected first entry %+v", got[0])
	}
	if !got[3].Escalated || got[3].Tier != "advanced" || got[3].Hidden {
		t.Fatalf("expected escalation on the fourth tick, got %+v", got[3])
	}
	if got[4].Status != "invalid" || got[4].Err == "" || !got[4].Hidden || !got[4].Hasted {
		t.Fatalf("expected invalid entry with error, got %+v", got[4])
	}
}

func TestReadStopsOnCallbackError(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		if err := w.Write(Entry{Tick: i, Status: "waiting"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(Entry{}); err == nil {
		t.Fatalf("expected write after close to fail")
	}

	stop := errors.New("stop")
	seen := 0
	err = Read(bytes.NewReader(buf.Bytes()), func(e Entry) error {
		seen++
		if e.Tick == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || seen != 2 {
		t.Fatalf("expected stop after 2 entries, got %v after %d", err, seen)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	if err := Read(bytes.NewReader([]byte("not zstd")), func(Entry) error { return nil }); err == nil {
		t.Fatalf("expected decode error")
	}
}
