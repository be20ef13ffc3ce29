package common

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	nodeOnce sync.Once
	idNode   *snowflake.Node
)

// UUIDint64 returns a time ordered unique int64 id
func UUIDint64() int64 {
	nodeOnce.Do(func() {
		node, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		idNode = node
	})
	return idNode.Generate().Int64()
}
