package tickets

const (
	TopicOrderCancelled  = "ticket.order.cancelled"
	TopicOrderRefunded   = "ticket.order.refunded"
	TopicCheckInRecorded = "ticket.checkin.recorded"
	TopicCommQueued      = "ticket.comm.queued"
)

// Partition key keeps all events of one aggregate in order.
func PartitionKey(id string) []byte { return []byte(id) }
