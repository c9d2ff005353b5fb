// pkg/grid/file.go

package grid

import (
	"bytes"
	"context"
	"io"
	"time"

	"GridKV/pkg/store"
	"GridKV/pkg/utils"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var logger = utils.GetLogger("gridkv")

// File is an open chunked file: a cursor over the chunk records of one
// file id. It owns exactly one chunk at a time and crosses chunk
// boundaries by persisting (when writing) or discarding (when reading)
// the current chunk and fetching or allocating its successor.
//
// A File is not safe for concurrent use. Every successful Open must be
// paired with Close, or the last partially-filled chunk and the file
// record are never persisted.
type File struct {
	st   store.Store
	ctx  context.Context
	root string

	info *store.FileInfo
	mode Mode

	pos    int64
	curr   *chunk
	unread int // one-byte pushback slot, -1 when empty
	lineno int64

	firstSave bool
	closed    bool
}

var (
	_ io.Reader     = (*File)(nil)
	_ io.Writer     = (*File)(nil)
	_ io.Seeker     = (*File)(nil)
	_ io.ByteReader = (*File)(nil)
	_ io.Closer     = (*File)(nil)
)

// Open looks up the file record by filename and positions a cursor on it.
// A missing file gets a fresh record (new id, configured defaults,
// length 0). Opening for write drops all existing chunk records of the
// id; opening for append loads the last chunk and positions at its end.
//
// Option semantics: Root selects the record-set namespace for any mode.
// ChunkSize, ContentType and Metadata act as overrides in write mode
// only; in read and append mode a ChunkSize differing from the stored
// one is a configuration error.
func Open(ctx context.Context, st store.Store, name string, mode Mode, opts *Options) (*File, error) {
	if !mode.valid() {
		return nil, ErrInvalidMode
	}
	if opts != nil && opts.ChunkSize < 0 {
		return nil, ErrInvalidChunkSize
	}
	o := opts.withDefaults()

	info, err := st.LookupFile(ctx, o.Root, name)
	firstSave := false
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, errors.Wrapf(err, "lookup %s", name)
		}
		firstSave = true
		info = &store.FileInfo{
			ID:          uuid.New().String(),
			Filename:    name,
			ContentType: o.ContentType,
			ChunkSize:   o.ChunkSize,
			Metadata:    o.Metadata,
		}
	} else if info.ChunkSize <= 0 {
		return nil, errors.Errorf("broken record %s: chunk size %d", info.ID, info.ChunkSize)
	} else if mode != ModeWrite && opts != nil && opts.ChunkSize > 0 && opts.ChunkSize != info.ChunkSize {
		return nil, ErrChunkSizeFrozen
	}

	f := &File{
		st:        st,
		ctx:       ctx,
		root:      o.Root,
		info:      info,
		mode:      mode,
		unread:    -1,
		firstSave: firstSave,
	}

	switch mode {
	case ModeRead:
		if err := f.fetchChunk(0); err != nil {
			return nil, err
		}

	case ModeWrite:
		// The only spot where overrides are legal: fresh chunk 0,
		// nothing written yet.
		if !firstSave && opts != nil {
			if opts.ChunkSize > 0 {
				info.ChunkSize = opts.ChunkSize
			}
			if opts.ContentType != "" {
				info.ContentType = opts.ContentType
			}
			if opts.Metadata != nil {
				info.Metadata = opts.Metadata
			}
		}
		if !firstSave {
			if err := st.RemoveChunks(ctx, o.Root, info.ID); err != nil {
				return nil, errors.Wrapf(err, "drop chunks of %s", name)
			}
		}
		if err := st.EnsureIndex(ctx, o.Root); err != nil {
			return nil, errors.Wrap(err, "ensure index")
		}
		f.curr = newChunk(0)

	case ModeAppend:
		if err := st.EnsureIndex(ctx, o.Root); err != nil {
			return nil, errors.Wrap(err, "ensure index")
		}
		if err := f.fetchChunk(info.Length / info.ChunkSize); err != nil {
			return nil, err
		}
		f.curr.pos = int64(len(f.curr.data))
		f.pos = info.Length
	}
	return f, nil
}

// Info returns a copy of the file record as loaded at open (and as
// finalized by Close on the writing side).
func (f *File) Info() store.FileInfo {
	return *f.info.Clone()
}

// Name returns the filename the cursor was opened under.
func (f *File) Name() string {
	return f.info.Filename
}

// Mode returns the open mode.
func (f *File) Mode() Mode {
	return f.mode
}

func (f *File) fetchChunk(n int64) error {
	data, err := f.st.GetChunk(f.ctx, f.root, f.info.ID, n)
	if errors.Is(err, store.ErrNotFound) {
		f.curr = newChunk(n)
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "load chunk %d", n)
	}
	f.curr = loadedChunk(n, data)
	return nil
}

func (f *File) saveChunk() error {
	if !f.curr.dirty {
		return nil
	}
	if err := f.curr.save(f.ctx, f.st, f.root, f.info.ID); err != nil {
		return errors.Wrapf(err, "save chunk %d", f.curr.n)
	}
	return nil
}

// nextChunk advances to the successor chunk for reading. It reports
// false when no successor record exists, which is end-of-file.
func (f *File) nextChunk() (bool, error) {
	if f.mode.writable() {
		if err := f.saveChunk(); err != nil {
			return false, err
		}
	}
	n := f.curr.n + 1
	data, err := f.st.GetChunk(f.ctx, f.root, f.info.ID, n)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "load chunk %d", n)
	}
	f.curr = loadedChunk(n, data)
	return true, nil
}

// Read fills p from the current position, crossing chunk boundaries as
// needed. It returns io.EOF only when no byte could be read.
func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	var nn int
	if f.unread >= 0 {
		p[0] = byte(f.unread)
		f.unread = -1
		f.pos++
		nn = 1
	}
	for nn < len(p) {
		if f.curr.eof() {
			ok, err := f.nextChunk()
			if err != nil {
				return nn, err
			}
			if !ok {
				if nn > 0 {
					return nn, nil
				}
				return 0, io.EOF
			}
			continue
		}
		n := copy(p[nn:], f.curr.data[f.curr.pos:])
		f.curr.pos += int64(n)
		f.pos += int64(n)
		nn += n
	}
	return nn, nil
}

// ReadAll reads the remainder of the file.
func (f *File) ReadAll() ([]byte, error) {
	if f.closed {
		return nil, ErrClosed
	}
	remain := f.info.Length - f.pos
	if remain < 0 {
		remain = 0
	}
	buf := bytes.NewBuffer(make([]byte, 0, remain))
	if f.unread >= 0 {
		buf.WriteByte(byte(f.unread))
		f.unread = -1
		f.pos++
	}
	for {
		if f.curr.eof() {
			ok, err := f.nextChunk()
			if err != nil {
				return nil, err
			}
			if !ok {
				return buf.Bytes(), nil
			}
			continue
		}
		n, _ := buf.Write(f.curr.data[f.curr.pos:])
		f.curr.pos += int64(n)
		f.pos += int64(n)
	}
}

// GetByte returns the next byte, replaying any pushback first. At
// end-of-file it returns ok == false with a nil error, so scan loops
// can poll without error-driven control flow.
func (f *File) GetByte() (byte, bool, error) {
	if f.closed {
		return 0, false, ErrClosed
	}
	if f.unread >= 0 {
		b := byte(f.unread)
		f.unread = -1
		f.pos++
		return b, true, nil
	}
	for f.curr.eof() {
		ok, err := f.nextChunk()
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, nil
		}
	}
	b, _ := f.curr.getByte()
	f.pos++
	return b, true, nil
}

// Pushback stores one byte to be replayed by the next read and moves
// the position back by one. Only a single byte of pushback is held.
func (f *File) Pushback(b byte) error {
	if f.closed {
		return ErrClosed
	}
	if f.unread >= 0 {
		return ErrPushback
	}
	f.unread = int(b)
	f.pos--
	return nil
}

// ReadByte is the strict form of GetByte: it returns io.EOF when no
// data remains.
func (f *File) ReadByte() (byte, error) {
	b, ok, err := f.GetByte()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, io.EOF
	}
	return b, nil
}

// ReadLine reads up to and including the next separator byte. A partial
// final line is returned without error; io.EOF is returned only when no
// byte remains.
func (f *File) ReadLine(sep byte) (string, error) {
	var line []byte
	for {
		b, ok, err := f.GetByte()
		if err != nil {
			return "", err
		}
		if !ok {
			if len(line) == 0 {
				return "", io.EOF
			}
			break
		}
		line = append(line, b)
		if b == sep {
			break
		}
	}
	f.lineno++
	return string(line), nil
}

// PutByte writes one byte at the current position, persisting the
// current chunk and allocating its successor when it is full.
func (f *File) PutByte(b byte) error {
	if f.closed {
		return ErrClosed
	}
	if !f.mode.writable() {
		return ErrNotWritable
	}
	if f.curr.pos >= f.info.ChunkSize {
		if err := f.saveChunk(); err != nil {
			return err
		}
		f.curr = newChunk(f.curr.n + 1)
	}
	f.curr.putByte(b)
	f.pos++
	return nil
}

// Write copies p into the file chunk by chunk: fill the remaining space
// of the current chunk, persist it once full, allocate the successor,
// repeat until p is consumed.
func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	if !f.mode.writable() {
		return 0, ErrNotWritable
	}
	var nn int
	for nn < len(p) {
		if f.curr.pos >= f.info.ChunkSize {
			if err := f.saveChunk(); err != nil {
				return nn, err
			}
			f.curr = newChunk(f.curr.n + 1)
		}
		n := f.curr.write(p[nn:], f.info.ChunkSize)
		nn += n
		f.pos += int64(n)
	}
	return nn, nil
}

// WriteString writes s byte-wise.
func (f *File) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

// Puts writes a line, appending '\n' unless s already ends with one.
func (f *File) Puts(s string) error {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		s += "\n"
	}
	_, err := f.WriteString(s)
	if err == nil {
		f.lineno++
	}
	return err
}

// Seek resolves the target position from whence, flushes the current
// chunk before switching when writing, and fetches or allocates the
// target chunk. Seeking past end-of-file is legal in read mode; reads
// there simply return no data.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, ErrClosed
	}
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = f.pos + offset
	case io.SeekEnd:
		target = f.info.Length + offset
	default:
		return 0, errors.Errorf("invalid whence: %d", whence)
	}
	if target < 0 {
		return 0, errors.Errorf("negative position: %d", target)
	}
	f.unread = -1

	tc := target / f.info.ChunkSize
	if tc != f.curr.n {
		if f.mode.writable() {
			if err := f.saveChunk(); err != nil {
				return 0, err
			}
		}
		if err := f.fetchChunk(tc); err != nil {
			return 0, err
		}
	}
	f.curr.seek(target%f.info.ChunkSize, f.mode.writable())
	f.pos = target
	return target, nil
}

// Tell returns the absolute position. No side effects.
func (f *File) Tell() int64 {
	return f.pos
}

// Lineno returns how many lines have been read or written so far.
// Rewind resets it.
func (f *File) Lineno() int64 {
	return f.lineno
}

// EOF reports whether the position has reached the file length. Valid
// in read mode only.
func (f *File) EOF() (bool, error) {
	if f.closed {
		return false, ErrClosed
	}
	if f.mode != ModeRead {
		return false, ErrNotOpenForRead
	}
	return f.pos >= f.info.Length, nil
}

// Rewind resets the cursor to the start. In write mode this discards
// every chunk written so far and restarts at a fresh chunk 0; in read
// and append mode it re-fetches chunk 0.
func (f *File) Rewind() error {
	if f.closed {
		return ErrClosed
	}
	if f.mode == ModeWrite {
		if err := f.st.RemoveChunks(f.ctx, f.root, f.info.ID); err != nil {
			return errors.Wrap(err, "drop chunks")
		}
		f.curr = newChunk(0)
	} else {
		if err := f.fetchChunk(0); err != nil {
			return err
		}
	}
	f.pos = 0
	f.lineno = 0
	f.unread = -1
	return nil
}

// Close finalizes the file. For write and append mode it truncates the
// current chunk to its used length, persists it (the sole chunk 0 of an
// empty file is kept, zero-length), computes the final length, replaces
// any prior file record, stamps the upload date on first save only, and
// stores the server-side checksum. Read mode never mutates the store.
// Close is idempotent; after it returns the cursor is unusable.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.mode == ModeRead {
		return nil
	}

	f.curr.truncate()
	if len(f.curr.data) > 0 || f.curr.n == 0 {
		if err := f.curr.save(f.ctx, f.st, f.root, f.info.ID); err != nil {
			return errors.Wrapf(err, "save chunk %d", f.curr.n)
		}
	}
	f.info.Length = f.curr.n*f.info.ChunkSize + f.curr.pos

	if f.firstSave {
		f.info.UploadDate = time.Now()
	} else {
		if err := f.st.RemoveFile(f.ctx, f.root, f.info.ID); err != nil {
			return errors.Wrap(err, "remove prior record")
		}
	}
	sum, err := f.st.Checksum(f.ctx, f.root, f.info.ID)
	if err != nil {
		return errors.Wrap(err, "checksum")
	}
	f.info.Checksum = sum
	if err := f.st.InsertFile(f.ctx, f.root, f.info); err != nil {
		return errors.Wrap(err, "save file record")
	}
	logger.Debugf("closed %s: %d bytes in %d chunks", f.info.Filename, f.info.Length, f.curr.n+1)
	return nil
}
