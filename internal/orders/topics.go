package orders

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
)

// Partition key = order code, so every event of one order stays ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
