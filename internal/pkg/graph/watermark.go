package graph

import (
	"strings"
	"time"

	"github.com/anicoll/strom-graph/internal/pkg/model"
)

// watermarkLayout renders as "Monday 19 October 2026, 14:03:05".
const watermarkLayout = "Monday 02 January 2006, 15:04:05"

var germanNames = strings.NewReplacer(
	"Monday", "Montag",
	"Tuesday", "Dienstag",
	"Wednesday", "Mittwoch",
	"Thursday", "Donnerstag",
	"Friday", "Freitag",
	"Saturday", "Samstag",
	"Sunday", "Sonntag",
	"January", "Januar",
	"February", "Februar",
	"March", "März",
	"May", "Mai",
	"June", "Juni",
	"July", "Juli",
	"October", "Oktober",
	"December", "Dezember",
)

// Watermark formats t as weekday, day, month, year and time of day with
// names in the given language.
func Watermark(t time.Time, lang model.Language) string {
	s := t.Format(watermarkLayout)
	if lang == model.LanguageDE {
		s = germanNames.Replace(s)
	}
	return s
}
