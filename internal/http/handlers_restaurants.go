package http

import (
	"net/http"
	"time"

	"scontrini/internal/core"
	applog "scontrini/internal/log"
	"scontrini/internal/mutation"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	userID := s.userIDFrom(r)
	restaurants, err := s.queries.Restaurants(r.Context(), userID)
	if err != nil {
		s.logFailure(r, "List restaurants failed", err, applog.OpList)
		InternalServerError("Unable to load restaurants").Write(w)
		return
	}
	s.render(w, r, "index.html", indexPage{UserID: userID, Restaurants: restaurants})
}

// handleCreateRestaurant runs the optimistic add and answers with the
// refreshed restaurant list.
func (s *Server) handleCreateRestaurant(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	userID := s.userIDFrom(r)

	notes := &mutation.Collector{}
	out, err := s.mutations.AddRestaurant(r.Context(), p.AddRestaurantInput(userID), notes)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	b := NewHTMXResponse().NotificationFrom(notes)
	if out.State == mutation.Reconciled {
		b.TriggerRestaurantsChanged().TriggerFormReset()
	} else {
		b.Status(statusFor(out.Err))
	}

	restaurants, err := s.queries.Restaurants(r.Context(), userID)
	if err != nil {
		s.logFailure(r, "List restaurants failed", err, applog.OpList)
		b.Status(http.StatusInternalServerError).Write(w)
		return
	}
	s.renderWith(w, r, b, "restaurant_list", indexPage{UserID: userID, Restaurants: restaurants})
}

// handleRestaurant shows the records of one restaurant inside the optional
// from/to range. HTMX requests receive only the records table.
func (s *Server) handleRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurant, ok := s.ownedRestaurant(w, r)
	if !ok {
		return
	}
	rng, err := ParseRangeParams(r.URL.Query())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	records, err := s.queries.Records(r.Context(), restaurant.ID, rng)
	if err != nil {
		s.logFailure(r, "List records failed", err, applog.OpList)
		InternalServerError("Unable to load records").Write(w)
		return
	}

	page := newRestaurantPage(restaurant, records, rng, time.Now().Format(core.DateLayout))
	if r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-Target") == "records" {
		s.render(w, r, "records_table", page)
		return
	}
	s.render(w, r, "restaurant.html", page)
}

// ownedRestaurant loads the {id} restaurant and answers 404 when it does not
// exist or belongs to another user.
func (s *Server) ownedRestaurant(w http.ResponseWriter, r *http.Request) (core.Restaurant, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		NotFoundError("Restaurant not found").Write(w)
		return core.Restaurant{}, false
	}
	restaurant, err := s.queries.Restaurant(r.Context(), id)
	if err != nil {
		if status := statusFor(err); status != http.StatusNotFound {
			s.logFailure(r, "Load restaurant failed", err, applog.OpRead)
			InternalServerError("Unable to load restaurant").Write(w)
			return core.Restaurant{}, false
		}
		NotFoundError("Restaurant not found").Write(w)
		return core.Restaurant{}, false
	}
	if restaurant.UserID != s.userIDFrom(r) {
		NotFoundError("Restaurant not found").Write(w)
		return core.Restaurant{}, false
	}
	return restaurant, true
}

func (s *Server) logFailure(r *http.Request, msg string, err error, op string) {
	fields := applog.NewFields().WithUser(s.userIDFrom(r))
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogError(r.Context(), msg, err, applog.ComponentHTTP, op, fields)
}
