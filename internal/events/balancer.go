package events

import (
	"github.com/segmentio/kafka-go"
	"github.com/spaolacci/murmur3"
)

// OwnerBalancer routes messages by murmur3 hash of the key (the CPO owner
// id), so all events of one merchant land on one partition and stay ordered.
type OwnerBalancer struct{}

func (OwnerBalancer) Balance(msg kafka.Message, partitions ...int) int {
	if len(partitions) == 0 {
		return 0
	}
	if len(msg.Key) == 0 {
		return partitions[0]
	}
	return partitions[int(murmur3.Sum64(msg.Key)%uint64(len(partitions)))]
}
