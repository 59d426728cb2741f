package events

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestOwnerBalancer_Stable(t *testing.T) {
	b := OwnerBalancer{}
	partitions := []int{0, 1, 2, 3}

	msg := kafka.Message{Key: []byte("42")}
	first := b.Balance(msg, partitions...)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, b.Balance(msg, partitions...))
	}
	assert.Contains(t, partitions, first)
}

func TestOwnerBalancer_EdgeCases(t *testing.T) {
	b := OwnerBalancer{}

	assert.Equal(t, 0, b.Balance(kafka.Message{Key: []byte("7")}))
	assert.Equal(t, 5, b.Balance(kafka.Message{}, 5, 6, 7))
}
