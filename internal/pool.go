package internal

import (
	"bytes"
	"sync"
)

// BufferPool holds buffers packets are encoded into before they are written to a link.
var BufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 1500))
	},
}
