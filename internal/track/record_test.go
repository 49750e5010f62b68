package track

import (
	"encoding/json"
	"testing"
	"time"
)

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestSetStatusAppendsOnlyOnChange(t *testing.T) {
	rec := NewRecord("owner/repo", StatusNoSignal, t0)

	if len(rec.StatusHistory) != 1 {
		t.Fatalf("history length = %d, want 1", len(rec.StatusHistory))
	}

	// Confirming the same status must not re-stamp.
	later := t0.Add(24 * time.Hour)
	rec.SetStatus(StatusNoSignal, later)

	if !rec.StatusChangedAt.Equal(t0) {
		t.Errorf("StatusChangedAt moved on unchanged status: %v", rec.StatusChangedAt)
	}
	if len(rec.StatusHistory) != 1 {
		t.Errorf("history grew on unchanged status: %d entries", len(rec.StatusHistory))
	}
	if !rec.LastChecked.Equal(later) {
		t.Errorf("LastChecked = %v, want %v", rec.LastChecked, later)
	}

	// A genuine change stamps and appends.
	change := t0.Add(48 * time.Hour)
	rec.SetStatus(StatusAvailable, change)

	if !rec.StatusChangedAt.Equal(change) {
		t.Errorf("StatusChangedAt = %v, want %v", rec.StatusChangedAt, change)
	}
	if len(rec.StatusHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(rec.StatusHistory))
	}
	if rec.StatusHistory[1].Status != StatusAvailable {
		t.Errorf("appended status = %s, want available", rec.StatusHistory[1].Status)
	}
}

func TestFreshRelease(t *testing.T) {
	now := t0.Add(10 * 24 * time.Hour)
	window := 7 * 24 * time.Hour

	tests := []struct {
		name string
		rec  func() *Record
		want bool
	}{
		{
			name: "genuine transition within window",
			rec: func() *Record {
				rec := NewRecord("a/b", StatusPromised, t0)
				rec.SetStatus(StatusAvailable, now.Add(-time.Hour))
				return rec
			},
			want: true,
		},
		{
			name: "first seen already available",
			rec: func() *Record {
				return NewRecord("a/b", StatusAvailable, now.Add(-time.Hour))
			},
			want: false,
		},
		{
			name: "transition outside window",
			rec: func() *Record {
				rec := NewRecord("a/b", StatusNoSignal, t0)
				rec.SetStatus(StatusAvailable, now.Add(-8*24*time.Hour))
				return rec
			},
			want: false,
		},
		{
			name: "not available",
			rec: func() *Record {
				rec := NewRecord("a/b", StatusNoSignal, t0)
				rec.SetStatus(StatusPromised, now.Add(-time.Hour))
				return rec
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec().FreshRelease(now, window); got != tt.want {
				t.Errorf("FreshRelease = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"no_signal", "promised", "available"} {
		if _, err := ParseStatus(valid); err != nil {
			t.Errorf("ParseStatus(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "has_weights", "AVAILABLE", "done"} {
		if _, err := ParseStatus(invalid); err == nil {
			t.Errorf("ParseStatus(%q) succeeded, want error", invalid)
		}
	}
}

func TestRecordUnmarshalRejectsUnknownStatus(t *testing.T) {
	blob := `{"full_name":"a/b","status":"has_weights","first_seen":"2026-08-01T12:00:00Z"}`

	var rec Record
	if err := json.Unmarshal([]byte(blob), &rec); err == nil {
		t.Fatal("unmarshal with unknown status succeeded, want error")
	}
}

func TestValidateFullName(t *testing.T) {
	if err := ValidateFullName("owner/repo"); err != nil {
		t.Errorf("ValidateFullName(owner/repo) = %v", err)
	}
	for _, bad := range []string{"", "norepo", "a/b/c", "a b/c"} {
		if err := ValidateFullName(bad); err == nil {
			t.Errorf("ValidateFullName(%q) succeeded, want error", bad)
		}
	}
}
