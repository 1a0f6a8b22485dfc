package http

import (
	"net/http"
	"time"

	"scontrini/internal/core"
	applog "scontrini/internal/log"
	"scontrini/internal/mutation"
)

// handleAddRecord merges the submitted amounts into the record of that day
// or creates it, then re-renders the records table for the range carried in
// the form.
func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := s.ownedRestaurant(w, r)
	if !ok {
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	rng, err := ParseRangeParams(p.Values())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	notes := &mutation.Collector{}
	out, err := s.mutations.AddRecord(r.Context(), p.AddRecordInput(restaurant.ID, restaurant.UserID), notes)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	s.writeRecordsAfter(w, r, restaurant, rng, out, notes, true)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := s.ownedRestaurant(w, r)
	if !ok {
		return
	}
	recordID, err := pathID(r, "recordID")
	if err != nil {
		NotFoundError("Record not found").Write(w)
		return
	}
	rng, err := ParseRangeParams(r.URL.Query())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	notes := &mutation.Collector{}
	out := s.mutations.DeleteRecord(r.Context(), restaurant.ID, recordID, notes)
	s.writeRecordsAfter(w, r, restaurant, rng, out, notes, false)
}

// writeRecordsAfter answers a settled record mutation with the records
// table, read back through the query cache.
func (s *Server) writeRecordsAfter(w http.ResponseWriter, r *http.Request, restaurant core.Restaurant, rng core.DateRange, out mutation.Outcome, notes *mutation.Collector, resetForm bool) {
	b := NewHTMXResponse().NotificationFrom(notes)
	if out.State == mutation.Reconciled {
		b.TriggerRecordsChanged(restaurant.ID)
		if resetForm {
			b.TriggerFormReset()
		}
	} else {
		b.Status(statusFor(out.Err))
	}

	records, err := s.queries.Records(r.Context(), restaurant.ID, rng)
	if err != nil {
		s.logFailure(r, "List records failed", err, applog.OpList)
		b.Status(http.StatusInternalServerError).Write(w)
		return
	}
	page := newRestaurantPage(restaurant, records, rng, time.Now().Format(core.DateLayout))
	s.renderWith(w, r, b, "records_table", page)
}

// handleAllRecords lists every record of the user grouped by issued date.
func (s *Server) handleAllRecords(w http.ResponseWriter, r *http.Request) {
	userID := s.userIDFrom(r)
	rng, err := ParseRangeParams(r.URL.Query())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	groups, err := s.queries.AllRecords(r.Context(), userID, rng)
	if err != nil {
		s.logFailure(r, "List all records failed", err, applog.OpList)
		InternalServerError("Unable to load records").Write(w)
		return
	}
	s.render(w, r, "records_all.html", newAllRecordsPage(userID, groups, rng))
}
