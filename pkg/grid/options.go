// pkg/grid/options.go

package grid

import "strings"

const (
	DefaultRoot        = "fs"
	DefaultContentType = "text/plain"
	DefaultChunkSize   = 256 << 10
)

// Mode of an open file. Resolved once at open time; everything downstream
// switches on the enum.
type Mode int

const (
	ModeRead Mode = iota + 1
	ModeWrite
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeAppend:
		return "append"
	}
	return "invalid"
}

func (m Mode) valid() bool {
	return m == ModeRead || m == ModeWrite || m == ModeAppend
}

func (m Mode) writable() bool {
	return m == ModeWrite || m == ModeAppend
}

// ParseMode resolves the historical one-letter mode strings: "r" reads,
// "w" writes, "a" and "w+" append. Longer strings match by prefix.
func ParseMode(s string) (Mode, error) {
	if strings.HasPrefix(s, "w+") {
		return ModeAppend, nil
	}
	switch {
	case strings.HasPrefix(s, "r"):
		return ModeRead, nil
	case strings.HasPrefix(s, "w"):
		return ModeWrite, nil
	case strings.HasPrefix(s, "a"):
		return ModeAppend, nil
	}
	return 0, ErrInvalidMode
}

// Options recognized at open time. The zero value of a field means
// "not supplied"; defaults are applied per field.
type Options struct {
	Root        string            // record-set namespace, default "fs"
	ContentType string            // default "text/plain"
	ChunkSize   int64             // bytes per chunk, default 256 KiB
	Metadata    map[string]string // free-form metadata
}

func (o *Options) withDefaults() Options {
	var v Options
	if o != nil {
		v = *o
	}
	if v.Root == "" {
		v.Root = DefaultRoot
	}
	if v.ContentType == "" {
		v.ContentType = DefaultContentType
	}
	if v.ChunkSize == 0 {
		v.ChunkSize = DefaultChunkSize
	}
	return v
}
