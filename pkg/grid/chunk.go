// pkg/grid/chunk.go

package grid

import (
	"context"

	"GridKV/pkg/store"
	"GridKV/pkg/utils"
)

// chunk is one fixed-size unit of file data: sequence number, byte
// buffer and intra-chunk cursor. Every chunk of a file holds exactly
// the file's chunk size bytes except possibly the last one.
type chunk struct {
	n     int64
	data  []byte
	pos   int64
	dirty bool
}

func newChunk(n int64) *chunk {
	return &chunk{n: n}
}

func loadedChunk(n int64, data []byte) *chunk {
	return &chunk{n: n, data: data}
}

func (c *chunk) eof() bool {
	return c.pos >= int64(len(c.data))
}

func (c *chunk) getByte() (byte, bool) {
	if c.eof() {
		return 0, false
	}
	b := c.data[c.pos]
	c.pos++
	return b, true
}

func (c *chunk) putByte(b byte) {
	if c.pos < int64(len(c.data)) {
		c.data[c.pos] = b
	} else {
		c.data = append(c.data, b)
	}
	c.pos++
	c.dirty = true
}

// write copies as many bytes of p as fit before the chunk-size boundary,
// overwriting existing content and extending the buffer as needed. It
// returns the number of bytes consumed.
func (c *chunk) write(p []byte, chunkSize int64) int {
	space := chunkSize - c.pos
	n := utils.Min(len(p), int(space))
	over := utils.Min(n, len(c.data)-int(c.pos))
	if over < 0 {
		over = 0
	}
	if over > 0 {
		copy(c.data[c.pos:], p[:over])
	}
	if n > over {
		c.data = append(c.data, p[over:n]...)
	}
	c.pos += int64(n)
	c.dirty = true
	return n
}

// seek moves the intra-chunk cursor. With grow set, a target beyond the
// buffered content zero-fills the gap so subsequent writes land in place.
func (c *chunk) seek(pos int64, grow bool) {
	if grow && pos > int64(len(c.data)) {
		c.data = append(c.data, make([]byte, pos-int64(len(c.data)))...)
		c.dirty = true
	}
	c.pos = pos
}

// truncate cuts the buffer to the intra-chunk cursor, discarding any
// unused tail. Used once at close.
func (c *chunk) truncate() {
	if c.pos < int64(len(c.data)) {
		c.data = c.data[:c.pos]
		c.dirty = true
	}
}

// save upserts the chunk record keyed by (file id, n).
func (c *chunk) save(ctx context.Context, st store.Store, root, id string) error {
	if err := st.PutChunk(ctx, root, id, c.n, c.data); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
