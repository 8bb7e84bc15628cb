package orders

const (
	TopicOrderPlaced    = "order.placed"
	TopicOrderCancelled = "order.cancelled"
)

// Partition key = order number so every event of one order stays ordered.
func PartitionKey(orderNumber string) []byte { return []byte(orderNumber) }
