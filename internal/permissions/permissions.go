package permissions

import (
	"encoding/json"
	"fmt"
)

// Key names a single admin capability.
type Key string

const (
	ViewDashboard      Key = "view_dashboard"
	ViewBookings       Key = "view_bookings"
	ManageBookings     Key = "manage_bookings"
	ViewServices       Key = "view_services"
	ManageServices     Key = "manage_services"
	ViewStaff          Key = "view_staff"
	ManageStaff        Key = "manage_staff"
	ViewTestimonials   Key = "view_testimonials"
	ManageTestimonials Key = "manage_testimonials"
	ViewReviews        Key = "view_reviews"
	ManageReviews      Key = "manage_reviews"
	ManageUsers        Key = "manage_users"
)

// Keys is the closed set of capabilities, in display order.
var Keys = []Key{
	ViewDashboard,
	ViewBookings,
	ManageBookings,
	ViewServices,
	ManageServices,
	ViewStaff,
	ManageStaff,
	ViewTestimonials,
	ManageTestimonials,
	ViewReviews,
	ManageReviews,
	ManageUsers,
}

// Valid reports whether k belongs to the closed key set.
func (k Key) Valid() bool {
	var s Set
	return s.field(k) != nil
}

// ParseKey converts a stored or requested name into a Key.
func ParseKey(name string) (Key, error) {
	k := Key(name)
	if !k.Valid() {
		return "", fmt.Errorf("unknown permission %q", name)
	}
	return k, nil
}

// Set is a total capability mapping: every key is always present.
type Set struct {
	ViewDashboard      bool `json:"view_dashboard"`
	ViewBookings       bool `json:"view_bookings"`
	ManageBookings     bool `json:"manage_bookings"`
	ViewServices       bool `json:"view_services"`
	ManageServices     bool `json:"manage_services"`
	ViewStaff          bool `json:"view_staff"`
	ManageStaff        bool `json:"manage_staff"`
	ViewTestimonials   bool `json:"view_testimonials"`
	ManageTestimonials bool `json:"manage_testimonials"`
	ViewReviews        bool `json:"view_reviews"`
	ManageReviews      bool `json:"manage_reviews"`
	ManageUsers        bool `json:"manage_users"`
}

func (s *Set) field(k Key) *bool {
	switch k {
	case ViewDashboard:
		return &s.ViewDashboard
	case ViewBookings:
		return &s.ViewBookings
	case ManageBookings:
		return &s.ManageBookings
	case ViewServices:
		return &s.ViewServices
	case ManageServices:
		return &s.ManageServices
	case ViewStaff:
		return &s.ViewStaff
	case ManageStaff:
		return &s.ManageStaff
	case ViewTestimonials:
		return &s.ViewTestimonials
	case ManageTestimonials:
		return &s.ManageTestimonials
	case ViewReviews:
		return &s.ViewReviews
	case ManageReviews:
		return &s.ManageReviews
	case ManageUsers:
		return &s.ManageUsers
	default:
		return nil
	}
}

// Get returns the value for k; unknown keys are denied.
func (s Set) Get(k Key) bool {
	if f := s.field(k); f != nil {
		return *f
	}
	return false
}

// With returns a copy of s with k set to v. Unknown keys leave s unchanged.
func (s Set) With(k Key, v bool) Set {
	if f := s.field(k); f != nil {
		*f = v
	}
	return s
}

// Map flattens the set for storage or display.
func (s Set) Map() map[string]bool {
	out := make(map[string]bool, len(Keys))
	for _, k := range Keys {
		out[string(k)] = s.Get(k)
	}
	return out
}

// Default is the view-only baseline used for every account without overrides
// and for every lookup that could not be completed.
func Default() Set {
	return Set{
		ViewDashboard:    true,
		ViewBookings:     true,
		ViewServices:     true,
		ViewStaff:        true,
		ViewTestimonials: true,
		ViewReviews:      true,
	}
}

// All grants every capability.
func All() Set {
	var s Set
	for _, k := range Keys {
		s = s.With(k, true)
	}
	return s
}

// Merge applies stored overrides on top of the default baseline, key by key.
// Keys missing from overrides keep the baseline value; unknown keys are ignored.
func Merge(overrides map[string]bool) Set {
	s := Default()
	for _, k := range Keys {
		if v, ok := overrides[string(k)]; ok {
			s = s.With(k, v)
		}
	}
	return s
}

// DecodeOverrides parses a stored partial permission object.
// An empty value means no overrides.
func DecodeOverrides(raw []byte) (map[string]bool, error) {
	if len(raw) == 0 {
		return map[string]bool{}, nil
	}
	var overrides map[string]bool
	if err := json.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("decode stored permissions: %w", err)
	}
	if overrides == nil {
		overrides = map[string]bool{}
	}
	return overrides, nil
}
