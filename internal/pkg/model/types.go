package model

import (
	"fmt"
	"strings"
	"time"
)

type Period string

func (p Period) String() string {
	return string(p)
}

const (
	PeriodHour Period = "hour"
	PeriodDay  Period = "day"
	PeriodWeek Period = "week"
)

var Periods = []Period{
	PeriodHour,
	PeriodDay,
	PeriodWeek,
}

// Duration is how far back from now a graph of this period reaches.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodDay:
		return 24 * time.Hour
	case PeriodWeek:
		return 7 * 24 * time.Hour
	default:
		return time.Hour
	}
}

func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

type Language string

func (l Language) String() string {
	return string(l)
}

const (
	LanguageDE Language = "de"
	LanguageEN Language = "en"
)

var Languages = []Language{
	LanguageDE,
	LanguageEN,
}

func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Languages {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// ConsolidationFn names the RRA consolidation function used when reading.
type ConsolidationFn string

const (
	Average ConsolidationFn = "AVERAGE"
	Min     ConsolidationFn = "MIN"
	Max     ConsolidationFn = "MAX"
	Last    ConsolidationFn = "LAST"
)

func (cf ConsolidationFn) String() string {
	return string(cf)
}

func ParseConsolidationFn(s string) (ConsolidationFn, error) {
	cf := ConsolidationFn(strings.ToUpper(strings.TrimSpace(s)))
	switch cf {
	case Average, Min, Max, Last:
		return cf, nil
	}
	return "", fmt.Errorf("unknown consolidation function %q", s)
}

// Job is one graph to render: a time window in a language.
type Job struct {
	Period   Period
	Language Language
}

func (j Job) String() string {
	return fmt.Sprintf("%s/%s", j.Period, j.Language)
}
