package dispute

import "time"

// SiteVisit is the physical inspection sub-state of a dispute.
type SiteVisit struct {
	Required    bool
	Forced      bool
	ScheduledAt *time.Time
	Inspector   string
	Completed   bool
	CompletedAt *time.Time
}

// IsScheduled reports whether a date and an inspector were recorded.
func (v SiteVisit) IsScheduled() bool {
	return v.ScheduledAt != nil && v.Inspector != ""
}

// IsOutstanding reports whether the visit blocks an ordinary resolve.
func (v SiteVisit) IsOutstanding() bool {
	return v.Required && !v.Completed
}
