package models

// Payloads mirror the Google Places wire format so the mobile client can keep
// rendering the fields it already knows.

type Cafe struct {
	PlaceID  string      `json:"place_id"`
	Name     string      `json:"name"`
	Vicinity string      `json:"vicinity"`
	Geometry Geometry    `json:"geometry"`
	Photos   []CafePhoto `json:"photos,omitempty"`
}

type Geometry struct {
	Location LatLng `json:"location"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type CafePhoto struct {
	PhotoReference string `json:"photo_reference"`
}

// PlaceReview is a review fetched from the Places API, as opposed to one of
// our own Review documents.
type PlaceReview struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Text       string `json:"text"`
	Time       int64  `json:"time"`
}

type PlaceDetails struct {
	Reviews          []PlaceReview `json:"reviews"`
	Rating           float64       `json:"rating"`
	UserRatingsTotal int           `json:"user_ratings_total"`
}
