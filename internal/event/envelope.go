// Package event defines the wire envelope for live tracking events.
package event

import (
	"bytes"
	"sync"

	"cliq_go/internal/domain"

	"github.com/goccy/go-json"
)

// Envelope is a tracking event stamped with its dispatch sequence number.
// Seq is strictly increasing per process, so subscribers can detect gaps.
type Envelope struct {
	Seq   uint64               `json:"seq"`
	Event domain.TrackingEvent `json:"event"`
}

var bufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// Encode serialises the envelope to JSON using a pooled buffer.
// The returned slice is owned by the caller.
func (e Envelope) Encode() ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(e); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return bytes.TrimRight(out, "\n"), nil
}
