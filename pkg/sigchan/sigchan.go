package sigchan

// Chan 只传递“有事发生”的非阻塞通知，多次 Emit 会合并
type Chan struct {
	c chan struct{}
}

// New bufferSize 小于 1 时按 1 处理
func New(bufferSize int) *Chan {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Chan{c: make(chan struct{}, bufferSize)}
}

// Emit 非阻塞发送；缓冲已满说明已有未消费的通知，直接丢弃
func (c *Chan) Emit() {
	select {
	case c.c <- struct{}{}:
	default:
	}
}

func (c *Chan) C() <-chan struct{} {
	return c.c
}
