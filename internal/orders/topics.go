package orders

const (
	TopicOrdersChanged    = "pos.orders.changed"
	TopicInventoryChanged = "pos.inventory.changed"
)

// Partition key = order_id so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
