package http

import (
	"scontrini/internal/core"
	"scontrini/internal/report"
)

// rangeView is the state of the date-range picker. The end input stays
// disabled until a start exists and cannot precede it.
type rangeView struct {
	From       string
	To         string
	EndEnabled bool
	EndMin     string
	StartMax   string
	Query      string
}

func newRangeView(rng core.DateRange) rangeView {
	from, to := rng.Bounds()
	return rangeView{
		From:       from,
		To:         to,
		EndEnabled: rng.EndEnabled(),
		EndMin:     rng.EndMin(),
		StartMax:   rng.StartMax(),
		Query:      rangeQuery(rng),
	}
}

// rangeForm is the input of the range_form template.
type rangeForm struct {
	Action string
	Range  rangeView
}

func newRangeForm(action string, rng rangeView) rangeForm {
	return rangeForm{Action: action, Range: rng}
}

type indexPage struct {
	UserID      string
	Restaurants []core.Restaurant
}

type restaurantPage struct {
	Restaurant core.Restaurant
	Records    []core.Record
	Range      rangeView
	Total      core.Amount
	Today      string
}

type dateGroup struct {
	Key      string
	Records  []core.RecordDetail
	Subtotal core.Amount
}

type allRecordsPage struct {
	UserID string
	Groups []dateGroup
	Range  rangeView
	Total  core.Amount
}

type printPage struct {
	Title    string
	Document report.Document
	BackURL  string
}

func newRestaurantPage(r core.Restaurant, records []core.Record, rng core.DateRange, today string) restaurantPage {
	var total core.Amount
	for _, rec := range records {
		total = total.Add(rec.Subtotal())
	}
	return restaurantPage{
		Restaurant: r,
		Records:    records,
		Range:      newRangeView(rng),
		Total:      total,
		Today:      today,
	}
}

func newAllRecordsPage(userID string, groups core.DateGroups, rng core.DateRange) allRecordsPage {
	page := allRecordsPage{UserID: userID, Range: newRangeView(rng)}
	groups.Each(func(key string, details []core.RecordDetail) {
		g := dateGroup{Key: key, Records: details}
		for _, d := range details {
			g.Subtotal = g.Subtotal.Add(d.Subtotal())
		}
		page.Total = page.Total.Add(g.Subtotal)
		page.Groups = append(page.Groups, g)
	})
	return page
}

// isPending reports whether id belongs to an optimistic entry that has not
// been confirmed by the backend yet.
func isPending(id int64) bool {
	return core.IsPlaceholderID(id)
}
