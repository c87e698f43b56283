package parser

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func TestClassifyTime(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    TimeOfDay
		wantErr bool
	}{
		{name: "empty", token: "", want: TimeOfDay{Kind: TimeMissing}},
		{name: "whitespace", token: "   ", want: TimeOfDay{Kind: TimeMissing}},
		{name: "all day", token: "All Day", want: TimeOfDay{Kind: TimeAllDay}},
		{name: "day token", token: "Day 2", want: TimeOfDay{Kind: TimeAllDay}},
		{name: "tentative", token: "Tentative", want: TimeOfDay{Kind: TimeTentative}},
		{name: "no data", token: "No Data", want: TimeOfDay{Kind: TimeTentative}},
		{name: "morning", token: "7:30am", want: TimeOfDay{Kind: TimeExplicit, Hour: 7, Minute: 30}},
		{name: "evening", token: "7:30pm", want: TimeOfDay{Kind: TimeExplicit, Hour: 19, Minute: 30}},
		{name: "two digit hour", token: "11:45pm", want: TimeOfDay{Kind: TimeExplicit, Hour: 23, Minute: 45}},
		{name: "midnight", token: "12:00am", want: TimeOfDay{Kind: TimeExplicit, Hour: 0, Minute: 0}},
		{name: "noon", token: "12:30pm", want: TimeOfDay{Kind: TimeExplicit, Hour: 12, Minute: 30}},
		{name: "garbage", token: "soonish", wantErr: true},
		{name: "24 hour clock", token: "13:00pm", wantErr: true},
		{name: "bad minutes", token: "7:75am", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifyTime(tt.token)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ClassifyTime(%q) = %+v, want error", tt.token, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ClassifyTime(%q): %v", tt.token, err)
			}
			if got != tt.want {
				t.Fatalf("ClassifyTime(%q) = %+v, want %+v", tt.token, got, tt.want)
			}
		})
	}
}

func rowSelection(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table>" + html + "</table>"))
	if err != nil {
		t.Fatalf("parse row fixture: %v", err)
	}
	row := doc.Find("tr").First()
	if row.Length() == 0 {
		t.Fatalf("fixture has no row")
	}
	return row
}

func eventRow(date, timeTok, currency, impact, title string) string {
	var b strings.Builder
	b.WriteString(`<tr class="calendar__row">`)
	if date != "" {
		fmt.Fprintf(&b, `<td class="calendar__cell calendar__date date"><span class="date">%s</span></td>`, date)
	}
	fmt.Fprintf(&b, `<td class="calendar__cell calendar__time time">%s</td>`, timeTok)
	fmt.Fprintf(&b, `<td class="calendar__cell calendar__currency currency">%s</td>`, currency)
	fmt.Fprintf(&b, `<td class="calendar__cell calendar__impact impact">%s</td>`, impact)
	fmt.Fprintf(&b, `<td class="calendar__cell calendar__event event">%s</td>`, title)
	b.WriteString(`<td class="calendar__cell calendar__actual actual">0.3%</td>`)
	b.WriteString(`<td class="calendar__cell calendar__forecast forecast">0.2%</td>`)
	b.WriteString(`<td class="calendar__cell calendar__previous previous">0.1%</td>`)
	b.WriteString(`</tr>`)
	return b.String()
}

func testSession(t *testing.T) Session {
	t.Helper()
	display, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load display zone: %v", err)
	}
	target, err := time.LoadLocation("Etc/GMT+5")
	if err != nil {
		t.Fatalf("load target zone: %v", err)
	}
	return Session{
		StartCursor: time.Date(2007, time.January, 1, 0, 0, 0, 0, display),
		Now:         time.Date(2007, time.June, 1, 12, 0, 0, 0, target),
		WindowStart: time.Date(2007, time.January, 7, 0, 0, 0, 0, display),
		DisplayZone: display,
		TargetZone:  target,
	}
}

func TestExtractRowFullRow(t *testing.T) {
	session := testSession(t)
	row := rowSelection(t, eventRow("Sun Jan 7", "8:30am",
		"USD", `<span class="icon" title="High Impact Expected"></span>`, "Non-Farm Employment Change"))

	rec, action, st, err := ExtractRow(row, State{}, session)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if action != Emit {
		t.Fatalf("action = %v, want Emit", action)
	}
	want := time.Date(2007, time.January, 7, 8, 30, 0, 0, session.DisplayZone)
	if !rec.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", rec.Timestamp, want)
	}
	if rec.Timestamp.Location() != session.TargetZone {
		t.Fatalf("timestamp location = %v, want target zone", rec.Timestamp.Location())
	}
	if rec.Country != "USD" {
		t.Fatalf("country = %q", rec.Country)
	}
	if rec.Impact != "High Impact Expected" {
		t.Fatalf("impact = %q", rec.Impact)
	}
	if rec.Title != "Non-Farm Employment Change" {
		t.Fatalf("title = %q", rec.Title)
	}
	if rec.Actual != "0.3%" || rec.Forecast != "0.2%" || rec.Previous != "0.1%" {
		t.Fatalf("figures = %q/%q/%q", rec.Actual, rec.Forecast, rec.Previous)
	}
	if !st.LastDate.Equal(want) {
		t.Fatalf("state date = %v, want %v", st.LastDate, want)
	}
}

func TestExtractRowInheritsDate(t *testing.T) {
	session := testSession(t)
	st := State{LastDate: time.Date(2007, time.January, 7, 8, 30, 0, 0, session.DisplayZone)}
	row := rowSelection(t, eventRow("", "10:00am", "EUR", "", "German Factory Orders"))

	rec, action, next, err := ExtractRow(row, st, session)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if action != Emit {
		t.Fatalf("action = %v, want Emit", action)
	}
	want := time.Date(2007, time.January, 7, 10, 0, 0, 0, session.DisplayZone)
	if !rec.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", rec.Timestamp, want)
	}
	if !next.LastDate.Equal(want) {
		t.Fatalf("state date = %v, want %v", next.LastDate, want)
	}
}

func TestExtractRowInheritsTime(t *testing.T) {
	session := testSession(t)
	inherited := time.Date(2007, time.January, 7, 8, 30, 0, 0, session.DisplayZone)
	row := rowSelection(t, eventRow("", "", "JPY", "", "Monetary Policy Statement"))

	rec, action, _, err := ExtractRow(row, State{LastDate: inherited}, session)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if action != Emit {
		t.Fatalf("action = %v, want Emit", action)
	}
	if !rec.Timestamp.Equal(inherited) {
		t.Fatalf("timestamp = %v, want inherited %v", rec.Timestamp, inherited)
	}
}

func TestExtractRowSpecialTimeTokens(t *testing.T) {
	session := testSession(t)

	tests := []struct {
		name  string
		token string
		want  time.Time
	}{
		{
			name:  "all day resolves to end of day",
			token: "All Day",
			want:  time.Date(2007, time.January, 7, 23, 59, 59, 0, session.DisplayZone),
		},
		{
			name:  "tentative resolves to just after midnight",
			token: "Tentative",
			want:  time.Date(2007, time.January, 7, 0, 0, 1, 0, session.DisplayZone),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := rowSelection(t, eventRow("Sun Jan 7", tt.token, "CHF", "", "Bank Holiday"))
			rec, action, _, err := ExtractRow(row, State{}, session)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if action != Emit {
				t.Fatalf("action = %v, want Emit", action)
			}
			if !rec.Timestamp.Equal(tt.want) {
				t.Fatalf("timestamp = %v, want %v", rec.Timestamp, tt.want)
			}
		})
	}
}

func TestExtractRowUndatedRowSkipped(t *testing.T) {
	session := testSession(t)
	row := rowSelection(t, eventRow("", "8:30am", "USD", "", "Orphan Event"))

	rec, action, _, err := ExtractRow(row, State{}, session)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if action != Skip || rec != nil {
		t.Fatalf("action = %v rec = %v, want Skip and nil", action, rec)
	}
}

func TestExtractRowAtOrBeforeStartCursorSkipped(t *testing.T) {
	session := testSession(t)
	// Resolves to exactly the start cursor: midnight January 1.
	row := rowSelection(t, eventRow("Mon Jan 1", "", "USD", "", "New Year Holiday"))
	session.WindowStart = session.StartCursor

	rec, action, _, err := ExtractRow(row, State{}, session)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if action != Skip || rec != nil {
		t.Fatalf("action = %v rec = %v, want Skip and nil", action, rec)
	}
}

func TestExtractRowFutureRowStops(t *testing.T) {
	session := testSession(t)
	session.Now = time.Date(2007, time.January, 7, 12, 0, 0, 0, session.TargetZone)
	row := rowSelection(t, eventRow("Mon Jan 8", "9:00am", "USD", "", "Future Event"))

	rec, action, _, err := ExtractRow(row, State{}, session)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if action != Stop {
		t.Fatalf("action = %v, want Stop", action)
	}
	if rec != nil {
		t.Fatalf("rec = %v, want nil", rec)
	}
}

func TestExtractRowYearRollover(t *testing.T) {
	session := testSession(t)
	st := State{LastDate: time.Date(2007, time.December, 31, 10, 0, 0, 0, session.DisplayZone)}
	session.Now = time.Date(2008, time.June, 1, 0, 0, 0, 0, session.TargetZone)
	row := rowSelection(t, eventRow("Tue Jan 1", "9:00am", "AUD", "", "New Year Event"))

	rec, action, _, err := ExtractRow(row, st, session)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if action != Emit {
		t.Fatalf("action = %v, want Emit", action)
	}
	want := time.Date(2008, time.January, 1, 9, 0, 0, 0, session.DisplayZone)
	if !rec.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v (year rollover)", rec.Timestamp, want)
	}
}

func TestExtractRowImpactFallsBackToText(t *testing.T) {
	session := testSession(t)
	row := rowSelection(t, eventRow("Sun Jan 7", "8:30am", "USD", "Medium", "CPI m/m"))

	rec, _, _, err := ExtractRow(row, State{}, session)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec.Impact != "Medium" {
		t.Fatalf("impact = %q, want Medium", rec.Impact)
	}
}

func TestExtractRowMissingCellsYieldEmptyFields(t *testing.T) {
	session := testSession(t)
	row := rowSelection(t, `<tr class="calendar__row">`+
		`<td class="calendar__cell calendar__date date"><span class="date">Sun Jan 7</span></td>`+
		`<td class="calendar__cell calendar__time time">8:30am</td>`+
		`</tr>`)

	rec, action, _, err := ExtractRow(row, State{}, session)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if action != Emit {
		t.Fatalf("action = %v, want Emit", action)
	}
	if rec.Country != "" || rec.Impact != "" || rec.Title != "" || rec.Actual != "" {
		t.Fatalf("missing cells should yield empty fields, got %+v", rec)
	}
}

func TestExtractRowMalformedTimeToken(t *testing.T) {
	session := testSession(t)
	row := rowSelection(t, eventRow("Sun Jan 7", "whenever", "USD", "", "Mystery Event"))

	_, action, st, err := ExtractRow(row, State{}, session)
	if err == nil {
		t.Fatalf("expected error for malformed time token")
	}
	if action != Skip {
		t.Fatalf("action = %v, want Skip", action)
	}
	if st.LastDate.IsZero() {
		t.Fatalf("state should keep the parsed date for following rows")
	}
}
