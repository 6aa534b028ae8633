package comms

// StatusCounts is the group-by aggregation over a communication's records.
type StatusCounts map[RecordStatus]int

func (c StatusCounts) Sent() int      { return c[RecordSent] }
func (c StatusCounts) Delivered() int { return c[RecordDelivered] + c[RecordRead] }
func (c StatusCounts) Failed() int    { return c[RecordFailed] }

func (c StatusCounts) terminal() int {
	return c.Sent() + c.Delivered() + c.Failed()
}

// DeriveStatus folds record outcomes into the communication status:
// FAILED when every record failed, COMPLETED when every record reached a
// terminal state, otherwise still SENDING.
func DeriveStatus(counts StatusCounts, total int) Status {
	if total > 0 && counts.Failed() == total {
		return StatusFailed
	}
	if counts.terminal() == total {
		return StatusCompleted
	}
	return StatusSending
}
