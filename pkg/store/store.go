// pkg/store/store.go

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"GridKV/pkg/utils"
)

var logger = utils.GetLogger("gridkv")

// ErrNotFound is returned when a file or chunk record does not exist.
var ErrNotFound = errors.New("record not found")

// FileInfo is the metadata record describing one logical file.
type FileInfo struct {
	ID          string            `json:"id"`
	Filename    string            `json:"filename"`
	ContentType string            `json:"contentType"`
	Length      int64             `json:"length"`
	ChunkSize   int64             `json:"chunkSize"`
	UploadDate  time.Time         `json:"uploadDate"`
	Aliases     []string          `json:"aliases,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Checksum    string            `json:"checksum,omitempty"`
}

// Clone returns a deep copy of the record.
func (fi *FileInfo) Clone() *FileInfo {
	c := *fi
	if fi.Aliases != nil {
		c.Aliases = append([]string(nil), fi.Aliases...)
	}
	if fi.Metadata != nil {
		c.Metadata = make(map[string]string, len(fi.Metadata))
		for k, v := range fi.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Store is the backing record store. It keeps two record sets under a
// namespace root: file records and chunk records keyed by (file id, n).
// Implementations must return ErrNotFound for missing records and must
// not retry on their own beyond driver-level configuration.
type Store interface {
	Name() string

	// EnsureIndex prepares the (file id, n) chunk index for the root.
	EnsureIndex(ctx context.Context, root string) error

	LookupFile(ctx context.Context, root, filename string) (*FileInfo, error)
	InsertFile(ctx context.Context, root string, info *FileInfo) error
	RemoveFile(ctx context.Context, root, id string) error
	UpdateFilename(ctx context.Context, root, id, filename string) error
	ListFilenames(ctx context.Context, root string) ([]string, error)

	GetChunk(ctx context.Context, root, id string, n int64) ([]byte, error)
	PutChunk(ctx context.Context, root, id string, n int64, data []byte) error
	RemoveChunks(ctx context.Context, root, id string) error

	// Checksum computes a content digest for the file's chunks on the
	// server side, in sequence order.
	Checksum(ctx context.Context, root, id string) (string, error)
}

// Config for store clients.
type Config struct {
	Retries int
}

type Creator func(driver, addr string, conf *Config) (Store, error)

var drivers = make(map[string]Creator)

func Register(name string, creator Creator) {
	drivers[name] = creator
}

// NewStore creates a store client from a URI like redis://host:port/db.
func NewStore(uri string, conf *Config) (Store, error) {
	if conf == nil {
		conf = &Config{}
	}
	ps := strings.SplitN(uri, "://", 2)
	if len(ps) != 2 {
		return nil, fmt.Errorf("invalid store URL: %s", uri)
	}
	creator, ok := drivers[ps[0]]
	if !ok {
		return nil, fmt.Errorf("unsupported store driver: %s", ps[0])
	}
	logger.Debugf("connecting %s store at %s", ps[0], ps[1])
	return creator(ps[0], ps[1], conf)
}
