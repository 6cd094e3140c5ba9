package autocomplete

import (
	"net/url"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/geocoding"
)

// Form pairs the pickup and dropoff fields of the search screen.
type Form struct {
	Pickup  *Field
	Dropoff *Field
}

// NewForm creates both fields with the same options.
func NewForm(searcher geocoding.Searcher, opts Options) *Form {
	return &Form{
		Pickup:  NewField("pickup", searcher, opts),
		Dropoff: NewField("dropoff", searcher, opts),
	}
}

// Field returns the field with the given name, or nil.
func (f *Form) Field(name string) *Field {
	switch name {
	case "pickup":
		return f.Pickup
	case "dropoff":
		return f.Dropoff
	}
	return nil
}

// Complete reports whether both fields have something to geocode.
func (f *Form) Complete() bool {
	return f.Pickup.Value() != "" && f.Dropoff.Value() != ""
}

// ConfirmQuery is the query string handed to the confirm screen.
func (f *Form) ConfirmQuery() url.Values {
	q := url.Values{}
	q.Set("pickup", f.Pickup.Value())
	q.Set("dropoff", f.Dropoff.Value())
	return q
}

// Close closes both fields.
func (f *Form) Close() {
	f.Pickup.Close()
	f.Dropoff.Close()
}
