package models

import "time"

// Information is one persisted record of the collection.
//
// Group and Thing are set at creation and never change. Name, LocationName
// and LocationGeo are optional and are written only by a location update.
// ID is assigned by the store and is opaque to callers.
type Information struct {
	ID           string
	Group        string
	Thing        string
	Name         string
	LocationName string
	LocationGeo  *LngLat
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LngLat is a coordinate pair in [longitude, latitude] order.
type LngLat struct {
	Lng float64
	Lat float64
}

// Slice returns the pair as a two element [lng, lat] slice.
func (p LngLat) Slice() []float64 {
	return []float64{p.Lng, p.Lat}
}

// LocationUpdate is the set of fields replaced by a location update.
type LocationUpdate struct {
	Name         string
	LocationName string
	LocationGeo  LngLat
	UpdatedAt    time.Time
}

// StoredTime reduces t to what every backend can hold: UTC with millisecond
// precision.
func StoredTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// NewInformation builds a record ready for insertion. The store fills ID.
// now is reduced with StoredTime.
func NewInformation(group, thing string, now time.Time) *Information {
	now = StoredTime(now)
	return &Information{
		Group:     group,
		Thing:     thing,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyLocation replaces the name and location fields. Group and Thing are
// left untouched.
func (i *Information) ApplyLocation(u LocationUpdate) {
	geo := u.LocationGeo
	i.Name = u.Name
	i.LocationName = u.LocationName
	i.LocationGeo = &geo
	i.UpdatedAt = u.UpdatedAt
}

// Clone returns a deep copy so stores never hand out shared pointers.
func (i *Information) Clone() *Information {
	c := *i
	if i.LocationGeo != nil {
		geo := *i.LocationGeo
		c.LocationGeo = &geo
	}
	return &c
}
