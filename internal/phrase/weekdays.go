package phrase

import "time"

// Portuguese weekday names, keyed by their diacritic-folded spelling.
// Full, hyphenated ("-feira") and 3-letter abbreviated forms all resolve.
var weekdayNames = map[string]time.Weekday{
	"domingo": time.Sunday,
	"dom":     time.Sunday,

	"segunda":       time.Monday,
	"segunda-feira": time.Monday,
	"seg":           time.Monday,

	"terca":       time.Tuesday,
	"terca-feira": time.Tuesday,
	"ter":         time.Tuesday,

	"quarta":       time.Wednesday,
	"quarta-feira": time.Wednesday,
	"qua":          time.Wednesday,

	"quinta":       time.Thursday,
	"quinta-feira": time.Thursday,
	"qui":          time.Thursday,

	"sexta":       time.Friday,
	"sexta-feira": time.Friday,
	"sex":         time.Friday,

	"sabado": time.Saturday,
	"sab":    time.Saturday,
}

func weekdayByName(name string) (time.Weekday, bool) {
	dow, ok := weekdayNames[name]
	return dow, ok
}
