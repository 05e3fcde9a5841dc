package models

// Place identifies a class location by city and state.
type Place struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// String renders the place in the "City, State" form used for geocoding queries.
func (p Place) String() string {
	return p.City + ", " + p.State
}

// Coordinate is a resolved latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// ClassLocation is one distinct class observed in the survey. All fields take part in equality.
type ClassLocation struct {
	ClassType    string `json:"class_type"`
	Teacher      string `json:"teacher"`
	Year         int    `json:"year"`
	LocationType string `json:"location_type"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Place returns the city/state pair of the class.
func (c ClassLocation) Place() Place {
	return Place{City: c.City, State: c.State}
}

// LocationAggregate is one map point: a coordinate and the number of classes held there.
type LocationAggregate struct {
	Coordinate Coordinate `json:"coordinate"`
	Name       string     `json:"name"`
	Places     []string   `json:"places"`
	Count      int        `json:"count"`
}
