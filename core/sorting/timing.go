package sorting

import "time"

// Schedule holds the absolute deadlines for one actuation.
type Schedule struct {
	ActuateAt time.Time
	ResetAt   time.Time
}

// ComputeSchedule converts a match into actuation and reset deadlines from
// the sort photoelectric's delay configuration. Pure function.
func ComputeSchedule(matchTime time.Time, cfg PhotoelectricConfig) Schedule {
	actuateAt := matchTime.Add(cfg.SortingDelay())
	return Schedule{
		ActuateAt: actuateAt,
		ResetAt:   actuateAt.Add(cfg.ResetDelay()),
	}
}
