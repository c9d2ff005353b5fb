// pkg/store/memory.go

package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"sync"
)

// memStore is an in-process Store. It backs the tests and serves as the
// reference for driver semantics, including the rolling chunk digest.
type memStore struct {
	sync.Mutex
	roots map[string]*memRoot
}

type memRoot struct {
	names  map[string]string           // filename -> id
	files  map[string]*FileInfo        // id -> record
	chunks map[string]map[int64][]byte // id -> n -> data
}

var _ Store = &memStore{}

func init() {
	Register("mem", newMemStore)
}

func newMemStore(driver, addr string, conf *Config) (Store, error) {
	return &memStore{roots: make(map[string]*memRoot)}, nil
}

func (ms *memStore) Name() string {
	return "mem"
}

func (ms *memStore) root(root string) *memRoot {
	r, ok := ms.roots[root]
	if !ok {
		r = &memRoot{
			names:  make(map[string]string),
			files:  make(map[string]*FileInfo),
			chunks: make(map[string]map[int64][]byte),
		}
		ms.roots[root] = r
	}
	return r
}

func (ms *memStore) EnsureIndex(ctx context.Context, root string) error {
	return nil
}

func (ms *memStore) LookupFile(ctx context.Context, root, filename string) (*FileInfo, error) {
	ms.Lock()
	defer ms.Unlock()
	r := ms.root(root)
	id, ok := r.names[filename]
	if !ok {
		return nil, ErrNotFound
	}
	info, ok := r.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	return info.Clone(), nil
}

func (ms *memStore) InsertFile(ctx context.Context, root string, info *FileInfo) error {
	ms.Lock()
	defer ms.Unlock()
	r := ms.root(root)
	r.names[info.Filename] = info.ID
	r.files[info.ID] = info.Clone()
	return nil
}

func (ms *memStore) RemoveFile(ctx context.Context, root, id string) error {
	ms.Lock()
	defer ms.Unlock()
	r := ms.root(root)
	info, ok := r.files[id]
	if !ok {
		return nil
	}
	if r.names[info.Filename] == id {
		delete(r.names, info.Filename)
	}
	delete(r.files, id)
	return nil
}

func (ms *memStore) UpdateFilename(ctx context.Context, root, id, filename string) error {
	ms.Lock()
	defer ms.Unlock()
	r := ms.root(root)
	info, ok := r.files[id]
	if !ok {
		return ErrNotFound
	}
	if r.names[info.Filename] == id {
		delete(r.names, info.Filename)
	}
	info.Filename = filename
	r.names[filename] = id
	return nil
}

func (ms *memStore) ListFilenames(ctx context.Context, root string) ([]string, error) {
	ms.Lock()
	defer ms.Unlock()
	r := ms.root(root)
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (ms *memStore) GetChunk(ctx context.Context, root, id string, n int64) ([]byte, error) {
	ms.Lock()
	defer ms.Unlock()
	data, ok := ms.root(root).chunks[id][n]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (ms *memStore) PutChunk(ctx context.Context, root, id string, n int64, data []byte) error {
	ms.Lock()
	defer ms.Unlock()
	r := ms.root(root)
	if r.chunks[id] == nil {
		r.chunks[id] = make(map[int64][]byte)
	}
	r.chunks[id][n] = append([]byte(nil), data...)
	return nil
}

func (ms *memStore) RemoveChunks(ctx context.Context, root, id string) error {
	ms.Lock()
	defer ms.Unlock()
	delete(ms.root(root).chunks, id)
	return nil
}

// Checksum folds sha1 over the chunks in sequence order, matching the
// redis driver's server-side script byte for byte.
func (ms *memStore) Checksum(ctx context.Context, root, id string) (string, error) {
	ms.Lock()
	defer ms.Unlock()
	chunks := ms.root(root).chunks[id]
	ns := make([]int64, 0, len(chunks))
	for n := range chunks {
		ns = append(ns, n)
	}
	sort.Slice(ns, func(i, j int) bool { return ns[i] < ns[j] })
	var digest string
	for _, n := range ns {
		sum := sha1.Sum(append([]byte(digest), chunks[n]...))
		digest = hex.EncodeToString(sum[:])
	}
	return digest, nil
}
