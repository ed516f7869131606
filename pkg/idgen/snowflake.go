package idgen

import (
	"fmt"
	"time"

	sf "github.com/bwmarrin/snowflake"
)

// Generator 雪花ID生成器，同一节点内生成的ID严格递增
type Generator struct {
	node *sf.Node
}

// SetEpoch 设置雪花算法起始时间，需在创建任何节点之前调用
// startTime 格式："2006-01-02"
func SetEpoch(startTime string) error {
	st, err := time.Parse("2006-01-02", startTime)
	if err != nil {
		return fmt.Errorf("解析雪花起始时间失败: %w", err)
	}
	sf.Epoch = st.UnixNano() / int64(time.Millisecond)
	return nil
}

// New 创建雪花ID生成器，machineID 取值 0-1023
func New(machineID int64) (*Generator, error) {
	node, err := sf.NewNode(machineID)
	if err != nil {
		return nil, fmt.Errorf("创建雪花节点失败: %w", err)
	}
	return &Generator{node: node}, nil
}

// NextID 生成唯一ID
func (g *Generator) NextID() int64 {
	return g.node.Generate().Int64()
}
