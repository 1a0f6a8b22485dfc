package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	applog "scontrini/internal/log"
	"scontrini/internal/report"
	"scontrini/internal/report/xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// restaurantDataset loads the records of the {id} restaurant for the
// requested range as a flat report.
func (s *Server) restaurantDataset(w http.ResponseWriter, r *http.Request) (report.Dataset, string, bool) {
	restaurant, ok := s.ownedRestaurant(w, r)
	if !ok {
		return report.Dataset{}, "", false
	}
	rng, err := ParseRangeParams(r.URL.Query())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return report.Dataset{}, "", false
	}
	records, err := s.queries.Records(r.Context(), restaurant.ID, rng)
	if err != nil {
		s.logFailure(r, "List records failed", err, applog.OpRender)
		InternalServerError("Unable to load records").Write(w)
		return report.Dataset{}, "", false
	}
	back := "/restaurants/" + strconv.FormatInt(restaurant.ID, 10) + rangeQuery(rng)
	return report.Flat(restaurant.Name, records), back, true
}

// allRecordsDataset loads the grouped records of the user.
func (s *Server) allRecordsDataset(w http.ResponseWriter, r *http.Request) (report.Dataset, string, bool) {
	rng, err := ParseRangeParams(r.URL.Query())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return report.Dataset{}, "", false
	}
	groups, err := s.queries.AllRecords(r.Context(), s.userIDFrom(r), rng)
	if err != nil {
		s.logFailure(r, "List all records failed", err, applog.OpRender)
		InternalServerError("Unable to load records").Write(w)
		return report.Dataset{}, "", false
	}
	return report.Grouped(groups), "/records/all" + rangeQuery(rng), true
}

func (s *Server) handleRestaurantPrint(w http.ResponseWriter, r *http.Request) {
	if ds, back, ok := s.restaurantDataset(w, r); ok {
		s.writePrint(w, r, ds, back)
	}
}

func (s *Server) handleAllRecordsPrint(w http.ResponseWriter, r *http.Request) {
	if ds, back, ok := s.allRecordsDataset(w, r); ok {
		s.writePrint(w, r, ds, back)
	}
}

func (s *Server) handleRestaurantExport(w http.ResponseWriter, r *http.Request) {
	if ds, _, ok := s.restaurantDataset(w, r); ok {
		s.writeXLSX(w, r, ds)
	}
}

func (s *Server) handleAllRecordsExport(w http.ResponseWriter, r *http.Request) {
	if ds, _, ok := s.allRecordsDataset(w, r); ok {
		s.writeXLSX(w, r, ds)
	}
}

// writePrint renders the printable receipt, one or two columns wide.
func (s *Server) writePrint(w http.ResponseWriter, r *http.Request, ds report.Dataset, back string) {
	plan := report.Layout(ds, report.ColumnLimit)
	doc := report.Render(plan, s.formatter)
	s.render(w, r, "print.html", printPage{Title: plan.Title(s.formatter), Document: doc, BackURL: back})
}

func (s *Server) writeXLSX(w http.ResponseWriter, r *http.Request, ds report.Dataset) {
	plan := report.Layout(ds, report.ColumnLimit)
	var buf bytes.Buffer
	if err := xlsx.Write(&buf, plan, s.formatter); err != nil {
		s.logFailure(r, "Spreadsheet export failed", err, applog.OpRender)
		InternalServerError("Unable to export records").Write(w)
		return
	}
	NewHTMXResponse().
		Header("Content-Type", xlsxContentType).
		Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(plan))).
		Body(buf.Bytes()).
		Write(w)
}

// exportName derives a download file name from the report kind.
func exportName(plan report.RenderPlan) string {
	if plan.Kind == report.KindGrouped {
		if plan.From == "" {
			return "records.xlsx"
		}
		return "records-" + plan.From + "-" + plan.To + ".xlsx"
	}
	name := make([]rune, 0, len(plan.Name))
	for _, c := range plan.Name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			name = append(name, c)
		case c == ' ':
			name = append(name, '-')
		}
	}
	if len(name) == 0 {
		return "records.xlsx"
	}
	return string(name) + ".xlsx"
}
