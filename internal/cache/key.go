package cache

import (
	"fmt"
	"strconv"
	"strings"
)

// Key identifies a cached query result. Segments are primitive values;
// integers are normalised to int64 so that 3 and int64(3) address the
// same entry.
type Key []any

// NewKey builds a key from its segments.
func NewKey(segments ...any) Key {
	k := make(Key, len(segments))
	for i, s := range segments {
		k[i] = normalize(s)
	}
	return k
}

func normalize(s any) any {
	switch v := s.(type) {
	case string, bool, int64:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// String returns the canonical encoding used as storage key.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, s := range k {
		switch v := s.(type) {
		case string:
			parts[i] = strconv.Quote(v)
		case int64:
			parts[i] = strconv.FormatInt(v, 10)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// HasPrefix reports whether the first segments of k equal prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Root returns the first segment as a key, the family the entry belongs to.
func (k Key) Root() Key {
	if len(k) == 0 {
		return Key{}
	}
	return Key{k[0]}
}

// Well-known query families.
const (
	FamilyRestaurants = "restaurants"
	FamilyRestaurant  = "restaurant"
	FamilyRecords     = "records"
)

// RestaurantsKey addresses the list of restaurants of a user.
func RestaurantsKey(userID string) Key {
	return NewKey(FamilyRestaurants, userID)
}

// RestaurantKey addresses a single restaurant.
func RestaurantKey(id int64) Key {
	return NewKey(FamilyRestaurant, id)
}

// RecordsKey addresses the unfiltered records of a restaurant.
func RecordsKey(restaurantID int64) Key {
	return NewKey(FamilyRecords, restaurantID)
}

// FilteredRecordsKey addresses the records of a restaurant inside a range.
func FilteredRecordsKey(restaurantID int64, start, end string) Key {
	if start == "" && end == "" {
		return RecordsKey(restaurantID)
	}
	return NewKey(FamilyRecords, restaurantID, start, end)
}

// AllRecordsKey addresses the cross-restaurant records of a user inside
// a range.
func AllRecordsKey(userID, start, end string) Key {
	return NewKey(FamilyRecords, "all", userID, start, end)
}
