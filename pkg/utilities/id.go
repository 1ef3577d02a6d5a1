package utilities

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// IDGenerator hands out record identifiers. Users get snowflake ids, which
// sort by creation time and stay short; customers get KSUIDs.
//
// A single snowflake node must be shared for the whole process, otherwise two
// nodes with the same number can emit the same id within one millisecond.
type IDGenerator struct {
	node *snowflake.Node
}

// NewIDGenerator creates a generator bound to the given snowflake node (0-1023).
func NewIDGenerator(nodeID int64) (*IDGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &IDGenerator{node: node}, nil
}

// NewUserID returns a new snowflake id string.
func (g *IDGenerator) NewUserID() string {
	return g.node.Generate().String()
}

// NewCustomerID returns a new KSUID string.
func (g *IDGenerator) NewCustomerID() string {
	return NewKSUID()
}

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}
