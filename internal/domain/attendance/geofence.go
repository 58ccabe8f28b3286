package attendance

import (
	"github.com/classtrack/classtrack-backend-go/internal/domain/session"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/geo"
)

// GeofenceResult is the outcome of checking a reported coordinate against
// a session's registered location. DistanceMeters is always computed, even
// for out-of-range attempts, so teachers can review photo check-ins later.
type GeofenceResult struct {
	InRange        bool
	DistanceMeters float64
}

// ClassifyGeofence validates a reported coordinate against the session
// geofence. The reported GPS accuracy widens the acceptance radius so
// low-precision devices are not penalized, capped at maxAccuracyAllowance.
func ClassifyGeofence(lat, lon, accuracy float64, p session.Policy, maxAccuracyAllowanceMeters float64) GeofenceResult {
	distance := geo.HaversineDistance(lat, lon, p.Latitude, p.Longitude)

	allowance := accuracy
	if allowance > maxAccuracyAllowanceMeters {
		allowance = maxAccuracyAllowanceMeters
	}
	if allowance < 0 {
		allowance = 0
	}

	return GeofenceResult{
		InRange:        distance <= p.RadiusMeters+allowance,
		DistanceMeters: distance,
	}
}
