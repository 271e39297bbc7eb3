package user

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator は作成時刻（Unixミリ秒）を10進文字列にしたIDを払い出します。
// 同一ミリ秒内の払い出しは直前の値 +1 になるため、プロセス内では単調増加です。
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator は現在時刻を使う IDGenerator を作成します。
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next は次のIDを返します。
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}
