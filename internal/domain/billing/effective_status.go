package billing

import "time"

// EffectiveStatus combines the stored status with the bills and the end date.
// A project is COMPLETED once every bill is paid, OUTSTANDING when money is
// still due after it was closed or after its end date, and ONGOING
// otherwise. A stored FUTURE is kept until the start date arrives.
func (p *Project) EffectiveStatus(now time.Time) ProjectStatus {
	today := truncateToDay(now)

	allPaid := len(p.Bills) > 0
	hasUnpaid := false
	for i := range p.Bills {
		status := p.Bills[i].Status
		if !status.IsSettled() {
			allPaid = false
		}
		if status.AwaitsPayment() {
			hasUnpaid = true
		}
	}

	switch {
	case allPaid, p.Status == ProjectStatusCompleted && !hasUnpaid:
		return ProjectStatusCompleted
	case p.Status == ProjectStatusOutstanding,
		p.Status == ProjectStatusCompleted && hasUnpaid,
		p.EndDate != nil && truncateToDay(*p.EndDate).Before(today) && hasUnpaid:
		return ProjectStatusOutstanding
	case p.Status == ProjectStatusFuture && (p.StartDate == nil || truncateToDay(*p.StartDate).After(today)):
		return ProjectStatusFuture
	}
	return ProjectStatusOngoing
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
