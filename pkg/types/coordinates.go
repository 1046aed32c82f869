package types

// Coordinates is a latitude/longitude pair in decimal degrees as exchanged
// over the API.
type Coordinates struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}
