package graph

import "github.com/anicoll/strom-graph/internal/pkg/model"

type labels struct {
	Title       string
	Vertical    string
	RightAxis   string
	Export      string
	Import      string
	Power       string
	PeriodShort string
}

var titles = map[model.Language]map[model.Period]string{
	model.LanguageDE: {
		model.PeriodHour: "Strom letzte Stunde",
		model.PeriodDay:  "Stromverbrauch - Letzte 24 Stunden",
		model.PeriodWeek: "Stromverbrauch - diese Woche",
	},
	model.LanguageEN: {
		model.PeriodHour: "Power Usage - Last Hour",
		model.PeriodDay:  "Power Usage - this day",
		model.PeriodWeek: "Power Usage - this week",
	},
}

var periodNames = map[model.Language]map[model.Period]string{
	model.LanguageDE: {
		model.PeriodHour: "stunde",
		model.PeriodDay:  "tag",
		model.PeriodWeek: "woche",
	},
	model.LanguageEN: {
		model.PeriodHour: "hour",
		model.PeriodDay:  "day",
		model.PeriodWeek: "week",
	},
}

func labelsFor(job model.Job) labels {
	l := labels{
		Title:       titles[job.Language][job.Period],
		PeriodShort: periodNames[job.Language][job.Period],
	}
	switch job.Language {
	case model.LanguageEN:
		l.Vertical = "Energy Wh"
		l.RightAxis = "Power W"
		l.Export = "Export"
		l.Import = "Import"
		l.Power = "Power"
	default:
		l.Vertical = "Energie Wh"
		l.RightAxis = "Leistung W"
		l.Export = "Einspeisung"
		l.Import = "Bezug"
		l.Power = "Leistung"
	}
	return l
}
