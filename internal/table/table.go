// Package table renders the "previous shortened links" table.
//
// Nothing is rendered unless the listing is SignInData. Otherwise the output is
// a section holding a four column table: the full URL, the shortened URL (a
// click-to-copy region), the time since the link was created and the row
// actions.
package table

import (
	_ "embed"
	"fmt"
	"io"
	"math"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/flosch/pongo2/v6"

	"github.com/patric-chuzhbe/linkfy/internal/models"
)

// DefaultShortLinkHost is the host short links are composed with.
const DefaultShortLinkHost = "linkfy.web.app"

// Column describes one header cell.
type Column struct {
	Name       string
	UID        string
	HideHeader bool
	Align      string
}

// Columns is the fixed header of the table.
var Columns = []Column{
	{Name: "FULL URL", UID: "full_url", Align: "start"},
	{Name: "SHORTENED URL", UID: "shortened_url", Align: "start"},
	{Name: "TIME", UID: "date", Align: "start"},
	{Name: "ACTIONS", UID: "actions", HideHeader: true, Align: "center"},
}

//go:embed table.html
var tableTemplateSource string

var tableTemplate = pongo2.Must(pongo2.FromString(tableTemplateSource))

// RowView is a DisplayRow with every cell computed.
type RowView struct {
	ID          string
	Code        string
	OriginalURL string
	ShortLink   string
	Time        string
	QRPath      string
	DeletePath  string
}

// Renderer turns a listing into markup.
type Renderer struct {
	host string
	now  func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock replaces time.Now; the clock is read once per Render call.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// NewRenderer returns a Renderer composing short links with host.
func NewRenderer(host string, opts ...Option) *Renderer {
	if host == "" {
		host = DefaultShortLinkHost
	}
	r := &Renderer{
		host: host,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ShortLink composes the string copied to the clipboard: "<host>/<code>".
func ShortLink(host, code string) string {
	return host + "/" + code
}

const day = 24 * time.Hour

type relUnit struct {
	name string
	size time.Duration
}

var (
	unitSecond = relUnit{name: "second", size: time.Second}
	unitMinute = relUnit{name: "minute", size: time.Minute}
	unitHour   = relUnit{name: "hour", size: time.Hour}
	unitDay    = relUnit{name: "day", size: day}
	unitMonth  = relUnit{name: "month", size: 30 * day}
	unitYear   = relUnit{name: "year", size: 365 * day}
)

// pickUnit chooses the unit from the unrounded distance. There is no week
// unit, so 14 days stay "14 days".
func pickUnit(diff time.Duration) relUnit {
	switch {
	case diff < time.Minute:
		return unitSecond
	case diff < time.Hour:
		return unitMinute
	case diff < day:
		return unitHour
	case diff < unitMonth.size:
		return unitDay
	case diff < unitYear.size:
		return unitMonth
	default:
		return unitYear
	}
}

// magnitudes formats exact multiples of the unit: 0 and 1 get their own
// wording, the rest go through %d.
func (u relUnit) magnitudes(future bool) []humanize.RelTimeMagnitude {
	layout := "%s %%s"
	if future {
		layout = "%%s %s"
	}

	return []humanize.RelTimeMagnitude{
		{D: u.size, Format: fmt.Sprintf(layout, "0 "+u.name+"s"), DivBy: u.size},
		{D: 2 * u.size, Format: fmt.Sprintf(layout, "1 "+u.name), DivBy: u.size},
		{D: math.MaxInt64, Format: fmt.Sprintf(layout, "%d "+u.name+"s"), DivBy: u.size},
	}
}

// RelativeTime is the distance from date to now, e.g. "3 days ago" or
// "in 2 hours". The distance is rounded to the nearest whole unit.
func RelativeTime(date, now time.Time) string {
	future := date.After(now)
	diff := now.Sub(date)
	if future {
		diff = -diff
	}

	unit := pickUnit(diff)
	count := diff.Round(unit.size) / unit.size
	if unit == unitMonth && count == 12 {
		unit, count = unitYear, 1
	}

	label := "ago"
	rounded := now.Add(-count * unit.size)
	if future {
		label = "in"
		rounded = now.Add(count * unit.size)
	}

	return humanize.CustomRelTime(rounded, now, label, label, unit.magnitudes(future))
}

// ShortLink composes the short link of code with the renderer's host.
func (r *Renderer) ShortLink(code string) string {
	return ShortLink(r.host, code)
}

// Rows computes the cells of every row against a single "now".
func (r *Renderer) Rows(rows []models.DisplayRow) []RowView {
	now := r.now()

	result := make([]RowView, 0, len(rows))
	for _, row := range rows {
		result = append(result, RowView{
			ID:          row.ID,
			Code:        row.Code,
			OriginalURL: row.OriginalURL,
			ShortLink:   r.ShortLink(row.Code),
			Time:        timeCell(row.Date, now),
			QRPath:      "/links/" + url.PathEscape(row.ID) + "/qr",
			DeletePath:  "/links/" + url.PathEscape(row.ID) + "/delete",
		})
	}

	return result
}

// Render writes the table for the listing, or nothing when the listing is not SignInData.
func (r *Renderer) Render(w io.Writer, listing models.Listing) error {
	if listing.Visibility != models.SignInData {
		return nil
	}

	err := tableTemplate.ExecuteWriter(pongo2.Context{
		"columns": Columns,
		"rows":    r.Rows(listing.Rows),
	}, w)
	if err != nil {
		return fmt.Errorf("rendering links table: %w", err)
	}

	return nil
}

func timeCell(date string, now time.Time) string {
	parsed, err := models.ParseDate(date)
	if err != nil {
		return date
	}

	return RelativeTime(parsed, now)
}
