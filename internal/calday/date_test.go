package calday

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{"valid", "2024-05-01", New(2024, time.May, 1), false},
		{"leap day", "2024-02-29", New(2024, time.February, 29), false},
		{"not a leap year", "2023-02-29", Date{}, true},
		{"february 30", "2024-02-30", Date{}, true},
		{"month 13", "2024-13-01", Date{}, true},
		{"day zero", "2024-05-00", Date{}, true},
		{"empty", "", Date{}, true},
		{"slashes", "2024/05/01", Date{}, true},
		{"short", "2024-5-1", Date{}, true},
		{"signed year", "+202-01-01", Date{}, true},
		{"with time", "2024-05-01T00:00:00", Date{}, true},
		{"words", "yesterday", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tt.input, got)
				}
				if !errors.Is(err, ErrMalformedDate) {
					t.Errorf("error %v is not ErrMalformedDate", err)
				}
				var mde *MalformedDateError
				if !errors.As(err, &mde) || mde.Input != tt.input {
					t.Errorf("error does not name input %q: %v", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		start string
		n     int
		want  string
	}{
		{"2024-03-09", 1, "2024-03-10"},
		{"2024-03-10", 1, "2024-03-11"},
		{"2024-11-03", 1, "2024-11-04"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2024-02-29", 1, "2024-03-01"},
		{"2024-12-31", 1, "2025-01-01"},
		{"2024-01-01", -1, "2023-12-31"},
		{"2024-05-01", 0, "2024-05-01"},
		{"2024-05-01", 365, "2025-05-01"},
	}

	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			got := MustParse(tt.start).AddDays(tt.n).String()
			if got != tt.want {
				t.Errorf("AddDays(%s, %d) = %s, want %s", tt.start, tt.n, got, tt.want)
			}
		})
	}
}

func TestAddDaysIgnoresLocalZone(t *testing.T) {
	zones := []string{"America/New_York", "America/Argentina/Buenos_Aires", "Europe/London", "Australia/Lord_Howe", "Pacific/Apia"}

	old := time.Local
	t.Cleanup(func() { time.Local = old })

	for _, zone := range zones {
		t.Run(zone, func(t *testing.T) {
			loc, err := time.LoadLocation(zone)
			if err != nil {
				t.Skipf("zone %s unavailable: %v", zone, err)
			}
			time.Local = loc

			if got := MustParse("2024-03-09").AddDays(1).String(); got != "2024-03-10" {
				t.Errorf("2024-03-09 + 1 = %s, want 2024-03-10", got)
			}

			d := MustParse("2024-01-15")
			for _, n := range []int{-400, -31, -1, 1, 7, 60, 366, 1000} {
				if back := d.AddDays(n).AddDays(-n); back != d {
					t.Errorf("round trip %d: got %s, want %s", n, back, d)
				}
				if got := d.DaysUntil(d.AddDays(n)); got != n {
					t.Errorf("DaysUntil after AddDays(%d) = %d", n, got)
				}
			}
		})
	}
}

func TestCompare(t *testing.T) {
	a := MustParse("2024-05-01")
	b := MustParse("2024-05-02")
	c := MustParse("2025-01-01")

	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Error("day ordering wrong")
	}
	if !b.Before(c) || !c.After(a) {
		t.Error("year ordering wrong")
	}
	if Min(c, a) != a || Max(a, c) != c {
		t.Error("Min/Max wrong")
	}
}

func TestDayLabel(t *testing.T) {
	// 2024-05-06 is a Monday.
	want := []string{"L", "M", "M", "J", "V", "S", "D"}
	start := MustParse("2024-05-06")
	for i, w := range want {
		d := start.AddDays(i)
		if got := d.DayLabel(); got != w {
			t.Errorf("%s label = %q, want %q", d, got, w)
		}
		if got := d.ISOWeekday(); got != i+1 {
			t.Errorf("%s ISO weekday = %d, want %d", d, got, i+1)
		}
	}
}

func TestDisplay(t *testing.T) {
	if got := MustParse("2024-05-09").Display(); got != "9" {
		t.Errorf("Display = %q, want %q", got, "9")
	}
}

func TestJSON(t *testing.T) {
	type payload struct {
		CheckIn  Date `json:"check_in"`
		CheckOut Date `json:"check_out"`
	}

	data, err := json.Marshal(payload{CheckIn: MustParse("2024-05-01")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"check_in":"2024-05-01","check_out":null}` {
		t.Errorf("marshal = %s", data)
	}

	var p payload
	err = json.Unmarshal([]byte(`{"check_in":"2024-02-30"}`), &p)
	if !errors.Is(err, ErrMalformedDate) {
		t.Errorf("unmarshal invalid date error = %v, want ErrMalformedDate", err)
	}
}

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		src  interface{}
		want Date
	}{
		{"string", "2024-05-01", MustParse("2024-05-01")},
		{"bytes", []byte("2024-05-02"), MustParse("2024-05-02")},
		{"time", time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), MustParse("2024-05-03")},
		{"nil", nil, Date{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			if err := d.Scan(tt.src); err != nil {
				t.Fatalf("scan: %v", err)
			}
			if d != tt.want {
				t.Errorf("got %v, want %v", d, tt.want)
			}
		})
	}

	var d Date
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}

func TestFixedClock(t *testing.T) {
	c := FixedClock(MustParse("2024-05-01"))
	if got := c.Today(); got != MustParse("2024-05-01") {
		t.Errorf("Today = %v", got)
	}
}

func TestSystemClockBadZone(t *testing.T) {
	if _, err := NewSystemClock("Not/AZone"); err == nil {
		t.Error("expected error for unknown zone")
	}
}
