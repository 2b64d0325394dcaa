package memscan

// CarryBuffer holds the tail of the previous chunk of a contiguous run so a
// match straddling the chunk boundary can still be seen. It never holds more
// than needle-1 bytes.
type CarryBuffer struct {
	buf []byte
	max int
}

func NewCarryBuffer(needleSize int) *CarryBuffer {
	max := needleSize - 1
	if max < 0 {
		max = 0
	}
	return &CarryBuffer{buf: make([]byte, 0, max), max: max}
}

// Reset drops the carried bytes. Called on every discontinuity.
func (c *CarryBuffer) Reset() {
	c.buf = c.buf[:0]
}

// Retain replaces the carry with the last min(needle-1, len(data)) bytes of data.
func (c *CarryBuffer) Retain(data []byte) {
	keep := c.max
	if len(data) < keep {
		keep = len(data)
	}
	c.buf = append(c.buf[:0], data[len(data)-keep:]...)
}

func (c *CarryBuffer) Len() int {
	return len(c.buf)
}

// Bytes returns the carried bytes. Valid until the next Reset or Retain.
func (c *CarryBuffer) Bytes() []byte {
	return c.buf
}
