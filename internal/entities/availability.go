package entities

import "time"

type Interval struct {
	Start time.Time
	End   time.Time
}

type AvailabilityResponse struct {
	SlotID             string
	RequestedStartTime time.Time
	RequestedEndTime   time.Time
	IsAvailable        bool
	Conflicts          []Interval
}
