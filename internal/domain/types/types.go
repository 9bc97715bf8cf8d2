// Package types contains common types used across the application
package types

// NearbyUser represents a row in a nearby-users listing
type NearbyUser struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distance_km"`
}
