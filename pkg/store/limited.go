// pkg/store/limited.go

package store

import (
	"context"

	"github.com/juju/ratelimit"
)

type bwlimit struct {
	Store
	upLimit   *ratelimit.Bucket
	downLimit *ratelimit.Bucket
}

// NewLimited caps the chunk transfer bandwidth of a store, in bytes per
// second for upload and download respectively. Zero disables a direction.
func NewLimited(s Store, up, down int64) Store {
	bw := &bwlimit{s, nil, nil}
	if up > 0 {
		// there are overheads coming from the protocol layer
		bw.upLimit = ratelimit.NewBucketWithRate(float64(up)*0.85, up)
	}
	if down > 0 {
		bw.downLimit = ratelimit.NewBucketWithRate(float64(down)*0.85, down)
	}
	return bw
}

func (p *bwlimit) GetChunk(ctx context.Context, root, id string, n int64) ([]byte, error) {
	data, err := p.Store.GetChunk(ctx, root, id, n)
	if err == nil && p.downLimit != nil {
		p.downLimit.Wait(int64(len(data)))
	}
	return data, err
}

func (p *bwlimit) PutChunk(ctx context.Context, root, id string, n int64, data []byte) error {
	if p.upLimit != nil {
		p.upLimit.Wait(int64(len(data)))
	}
	return p.Store.PutChunk(ctx, root, id, n, data)
}
