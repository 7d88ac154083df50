package models

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	tests := []struct {
		name        string
		now         string
		offsetHours int
		want        string
	}{
		{
			// 23:59 in the +10 frame is still the same calendar day there
			name:        "just before rollover in reference timezone",
			now:         "2026-03-10T13:59:00Z",
			offsetHours: 10,
			want:        "2026-03-09T14:00:00Z",
		},
		{
			// one minute later the reference timezone has ticked over
			name:        "just after rollover in reference timezone",
			now:         "2026-03-10T14:01:00Z",
			offsetHours: 10,
			want:        "2026-03-10T14:00:00Z",
		},
		{
			name:        "midday in reference timezone",
			now:         "2026-03-10T02:00:00Z",
			offsetHours: 10,
			want:        "2026-03-09T14:00:00Z",
		},
		{
			name:        "zero offset is plain UTC midnight",
			now:         "2026-03-10T18:30:00Z",
			offsetHours: 0,
			want:        "2026-03-10T00:00:00Z",
		},
		{
			name:        "negative offset",
			now:         "2026-03-10T03:00:00Z",
			offsetHours: -5,
			want:        "2026-03-09T05:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now, err := time.Parse(time.RFC3339, tt.now)
			if err != nil {
				t.Fatalf("bad test input: %v", err)
			}
			want, err := time.Parse(time.RFC3339, tt.want)
			if err != nil {
				t.Fatalf("bad test input: %v", err)
			}

			got := StartOfDay(now, tt.offsetHours)
			if !got.Equal(want) {
				t.Errorf("StartOfDay(%s, %d) = %s, want %s", tt.now, tt.offsetHours, got.Format(time.RFC3339), tt.want)
			}
		})
	}
}

func TestStartOfDayBoundaryIsInclusive(t *testing.T) {
	now, _ := time.Parse(time.RFC3339, "2026-03-10T02:00:00Z")
	boundary := StartOfDay(now, 10)

	if boundary.After(now) {
		t.Fatal("boundary must not be in the future relative to now")
	}

	// The upcoming filter is date >= boundary: a market dated exactly at
	// the boundary passes, one a second earlier does not.
	atBoundary := boundary
	if atBoundary.Before(boundary) {
		t.Error("market dated at the boundary must satisfy the filter")
	}
	yesterday := boundary.Add(-time.Second)
	if !yesterday.Before(boundary) {
		t.Error("market dated before the boundary must be excluded")
	}
}

func TestMarketUpdateSetDocument(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	name := "Jan Powers Farmers Market"
	active := false

	set := MarketUpdate{MarketName: &name, IsActive: &active}.SetDocument(now)

	if got := set["updated_at"]; got != now {
		t.Errorf("updated_at = %v, want %v", got, now)
	}
	if got := set["market_name"]; got != name {
		t.Errorf("market_name = %v, want %q", got, name)
	}
	if got := set["is_active"]; got != false {
		t.Errorf("is_active = %v, want false", got)
	}

	// Untouched fields must not appear in the $set payload at all.
	for _, key := range []string{"date", "location", "maps_link", "start_time", "end_time"} {
		if _, exists := set[key]; exists {
			t.Errorf("unexpected key %q in set document", key)
		}
	}
}

func TestMarketUpdateSetDocumentAlwaysStampsUpdatedAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	set := MarketUpdate{}.SetDocument(now)
	if len(set) != 1 {
		t.Fatalf("empty update produced %d fields, want only updated_at", len(set))
	}
	if got := set["updated_at"]; got != now {
		t.Errorf("updated_at = %v, want %v", got, now)
	}
}

func TestMarketFormUpdateUsesFirstDateOnly(t *testing.T) {
	d1 := time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 4, 11, 0, 0, 0, 0, time.UTC)

	form := MarketForm{
		Dates:      []time.Time{d1, d2},
		MarketName: "Spring Market",
		Location:   "123 Example St",
		StartTime:  "7am",
		EndTime:    "12pm",
		IsActive:   true,
	}

	update := form.Update()
	if update.Date == nil || !update.Date.Equal(d1) {
		t.Errorf("update date = %v, want %v", update.Date, d1)
	}
	if update.MarketName == nil || *update.MarketName != "Spring Market" {
		t.Errorf("update market name = %v, want Spring Market", update.MarketName)
	}
	if update.IsActive == nil || !*update.IsActive {
		t.Error("update is_active not carried through")
	}
}

func TestMarketFormMarket(t *testing.T) {
	date := time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC)
	form := MarketForm{
		Dates:      []time.Time{date},
		MarketName: "Spring Market",
		Location:   "123 Example St",
		MapsLink:   "https://maps.example.com/spring",
		StartTime:  "7am",
		EndTime:    "12pm",
		IsActive:   true,
	}

	m := form.Market(date)
	if !m.Date.Equal(date) {
		t.Errorf("date = %v, want %v", m.Date, date)
	}
	if m.MarketName != form.MarketName || m.Location != form.Location ||
		m.MapsLink != form.MapsLink || m.StartTime != form.StartTime ||
		m.EndTime != form.EndTime || m.IsActive != form.IsActive {
		t.Errorf("market fields do not match form: %+v", m)
	}
	if !m.ID.IsZero() {
		t.Error("id must be store-assigned, not set by the form")
	}
	if !m.CreatedAt.IsZero() || !m.UpdatedAt.IsZero() {
		t.Error("timestamps must be stamped by the mutation API, not the form")
	}
}
