package valueobject

// HealthStatus is the three-tier engagement classification of a guild.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthModerate HealthStatus = "moderate"
	HealthLow      HealthStatus = "low"
)

const (
	healthyEngagementThreshold  = 30.0
	moderateEngagementThreshold = 15.0
)

// ClassifyHealth maps an engagement percentage to a tier.
// Thresholds are strict: exactly 30 is moderate, exactly 15 is low.
func ClassifyHealth(engagementPercentage float64) HealthStatus {
	switch {
	case engagementPercentage > healthyEngagementThreshold:
		return HealthHealthy
	case engagementPercentage > moderateEngagementThreshold:
		return HealthModerate
	default:
		return HealthLow
	}
}

func (h HealthStatus) String() string {
	return string(h)
}
