package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves a region name to coordinates.
type Geocoder interface {
	// ForwardGeocode converts a region name to coordinates. An empty result
	// with a nil error means the provider found nothing.
	ForwardGeocode(ctx context.Context, name string) (GeocodingResult, error)
}
