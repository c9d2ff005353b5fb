// pkg/grid/file_test.go

package grid

import (
	"context"
	"io"
	"testing"

	"GridKV/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewStore("mem://", nil)
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, s store.Store, name string, data []byte, chunkSize int64) {
	t.Helper()
	f, err := Open(context.Background(), s, name, ModeWrite, &Options{ChunkSize: chunkSize})
	require.NoError(t, err)
	if len(data) > 0 {
		n, err := f.Write(data)
		require.NoError(t, err)
		require.Equal(t, len(data), n)
	}
	require.NoError(t, f.Close())
}

func readFile(t *testing.T, s store.Store, name string) []byte {
	t.Helper()
	f, err := Open(context.Background(), s, name, ModeRead, nil)
	require.NoError(t, err)
	defer f.Close()
	data, err := f.ReadAll()
	require.NoError(t, err)
	return data
}

func pattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*31 + 7)
	}
	return data
}

func TestRoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"empty":    nil,
		"single":   []byte("a"),
		"hello":    []byte("Hello, world!"),
		"large":    pattern(10000),
		"exact":    pattern(64),
		"one-over": pattern(65),
	}
	for _, chunkSize := range []int64{1, 2, 3, 4, 7, 16, 64, 4096} {
		for name, data := range payloads {
			s := newTestStore(t)
			writeFile(t, s, name, data, chunkSize)
			got := readFile(t, s, name)
			require.Equal(t, string(data), string(got), "cs=%d name=%s", chunkSize, name)
		}
	}
}

func TestChunkPartition(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	writeFile(t, s, "hello.txt", []byte("Hello, world!"), 4)

	info, err := s.LookupFile(ctx, DefaultRoot, "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(13), info.Length)
	assert.Equal(t, int64(4), info.ChunkSize)
	assert.NotEmpty(t, info.Checksum)
	assert.False(t, info.UploadDate.IsZero())

	want := []string{"Hell", "o, w", "orld", "!"}
	for n, content := range want {
		data, err := s.GetChunk(ctx, DefaultRoot, info.ID, int64(n))
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	}
	_, err = s.GetChunk(ctx, DefaultRoot, info.ID, 4)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEmptyFileKeepsSoleChunk(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	writeFile(t, s, "empty", nil, 4)

	info, err := s.LookupFile(ctx, DefaultRoot, "empty")
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Length)

	data, err := s.GetChunk(ctx, DefaultRoot, info.ID, 0)
	require.NoError(t, err)
	assert.Len(t, data, 0)
	_, err = s.GetChunk(ctx, DefaultRoot, info.ID, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.Empty(t, readFile(t, s, "empty"))
}

func TestSeekConsistency(t *testing.T) {
	data := pattern(50)
	s := newTestStore(t)
	writeFile(t, s, "f", data, 7)

	f, err := Open(context.Background(), s, "f", ModeRead, nil)
	require.NoError(t, err)
	defer f.Close()

	for o := 0; o <= len(data); o++ {
		got, err := f.Seek(int64(o), io.SeekStart)
		require.NoError(t, err)
		require.Equal(t, int64(o), got)
		require.Equal(t, int64(o), f.Tell())

		p := make([]byte, 5)
		n, err := f.Read(p)
		want := data[o:min(o+5, len(data))]
		if len(want) == 0 {
			require.ErrorIs(t, err, io.EOF)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, want, p[:n])
	}
}

func TestSeekWhence(t *testing.T) {
	data := pattern(20)
	s := newTestStore(t)
	writeFile(t, s, "f", data, 4)

	f, err := Open(context.Background(), s, "f", ModeRead, nil)
	require.NoError(t, err)
	defer f.Close()

	pos, err := f.Seek(10, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(10), pos)

	pos, err = f.Seek(-3, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)

	pos, err = f.Seek(-5, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(15), pos)

	b, err := f.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, data[15], b)

	_, err = f.Seek(-1, io.SeekStart)
	assert.Error(t, err)
	_, err = f.Seek(0, 42)
	assert.Error(t, err)
}

func TestSeekPastEndRead(t *testing.T) {
	s := newTestStore(t)
	writeFile(t, s, "f", pattern(10), 4)

	f, err := Open(context.Background(), s, "f", ModeRead, nil)
	require.NoError(t, err)
	defer f.Close()

	pos, err := f.Seek(100, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(100), pos)

	_, err = f.Read(make([]byte, 8))
	assert.ErrorIs(t, err, io.EOF)

	eof, err := f.EOF()
	require.NoError(t, err)
	assert.True(t, eof)
}

func TestSeekWhileWriting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	f, err := Open(ctx, s, "f", ModeWrite, &Options{ChunkSize: 4})
	require.NoError(t, err)
	_, err = f.WriteString("0123456789")
	require.NoError(t, err)

	_, err = f.Seek(2, io.SeekStart)
	require.NoError(t, err)
	_, err = f.WriteString("XYZWABCD")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, "01XYZWABCD", string(readFile(t, s, "f")))
}

func TestAppend(t *testing.T) {
	cases := []struct {
		name    string
		initial string
		extra   string
	}{
		{"partial-last-chunk", "Hello, world!", "ABC"},
		{"exact-multiple", "01234567", "xy"},
		{"empty-initial", "", "xy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			s := newTestStore(t)
			writeFile(t, s, "f", []byte(tc.initial), 4)

			f, err := Open(ctx, s, "f", ModeAppend, nil)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tc.initial)), f.Tell())
			_, err = f.WriteString(tc.extra)
			require.NoError(t, err)
			require.NoError(t, f.Close())

			info, err := s.LookupFile(ctx, DefaultRoot, "f")
			require.NoError(t, err)
			assert.Equal(t, int64(len(tc.initial)+len(tc.extra)), info.Length)
			assert.Equal(t, tc.initial+tc.extra, string(readFile(t, s, "f")))
		})
	}
}

func TestAppendCreatesMissingFile(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	f, err := Open(ctx, s, "fresh", ModeAppend, &Options{ChunkSize: 4})
	require.NoError(t, err)
	_, err = f.WriteString("hello")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, "hello", string(readFile(t, s, "fresh")))
}

func TestAppendPreservesUploadDate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	writeFile(t, s, "f", []byte("abc"), 4)

	first, err := s.LookupFile(ctx, DefaultRoot, "f")
	require.NoError(t, err)

	f, err := Open(ctx, s, "f", ModeAppend, nil)
	require.NoError(t, err)
	_, err = f.WriteString("def")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	second, err := s.LookupFile(ctx, DefaultRoot, "f")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.UploadDate.Equal(first.UploadDate))
	assert.NotEqual(t, first.Checksum, second.Checksum)
}

func TestRewindWhileWriting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	f, err := Open(ctx, s, "f", ModeWrite, &Options{ChunkSize: 4})
	require.NoError(t, err)
	_, err = f.WriteString("throwaway data")
	require.NoError(t, err)

	require.NoError(t, f.Rewind())
	assert.Equal(t, int64(0), f.Tell())
	_, err = f.WriteString("cc")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	info, err := s.LookupFile(ctx, DefaultRoot, "f")
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Length)
	assert.Equal(t, "cc", string(readFile(t, s, "f")))

	_, err = s.GetChunk(ctx, DefaultRoot, info.ID, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRewindWhileReading(t *testing.T) {
	data := pattern(20)
	s := newTestStore(t)
	writeFile(t, s, "f", data, 4)

	f, err := Open(context.Background(), s, "f", ModeRead, nil)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Read(make([]byte, 11))
	require.NoError(t, err)
	require.NoError(t, f.Rewind())
	assert.Equal(t, int64(0), f.Tell())

	got, err := f.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestGetByteAndPushback(t *testing.T) {
	s := newTestStore(t)
	writeFile(t, s, "f", []byte("ab"), 1)

	f, err := Open(context.Background(), s, "f", ModeRead, nil)
	require.NoError(t, err)
	defer f.Close()

	b, ok, err := f.GetByte()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, byte('a'), b)
	assert.Equal(t, int64(1), f.Tell())

	require.NoError(t, f.Pushback('Z'))
	assert.Equal(t, int64(0), f.Tell())
	assert.ErrorIs(t, f.Pushback('Y'), ErrPushback)

	b, ok, err = f.GetByte()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, byte('Z'), b)
	assert.Equal(t, int64(1), f.Tell())

	b, ok, err = f.GetByte()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, byte('b'), b)

	// sentinel, not a failure
	_, ok, err = f.GetByte()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStrictReads(t *testing.T) {
	s := newTestStore(t)
	writeFile(t, s, "f", []byte("alpha\nbeta\ngamma"), 3)

	f, err := Open(context.Background(), s, "f", ModeRead, nil)
	require.NoError(t, err)
	defer f.Close()

	line, err := f.ReadLine('\n')
	require.NoError(t, err)
	assert.Equal(t, "alpha\n", line)

	line, err = f.ReadLine('\n')
	require.NoError(t, err)
	assert.Equal(t, "beta\n", line)

	// partial final line comes back without error
	line, err = f.ReadLine('\n')
	require.NoError(t, err)
	assert.Equal(t, "gamma", line)

	_, err = f.ReadLine('\n')
	assert.ErrorIs(t, err, io.EOF)
	_, err = f.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineno(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	w, err := Open(ctx, s, "f", ModeWrite, &Options{ChunkSize: 4})
	require.NoError(t, err)
	assert.EqualValues(t, 0, w.Lineno())
	require.NoError(t, w.Puts("alpha"))
	require.NoError(t, w.Puts("beta"))
	assert.EqualValues(t, 2, w.Lineno())
	require.NoError(t, w.Close())

	r, err := Open(ctx, s, "f", ModeRead, nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.ReadLine('\n')
	require.NoError(t, err)
	_, err = r.ReadLine('\n')
	require.NoError(t, err)
	assert.EqualValues(t, 2, r.Lineno())

	require.NoError(t, r.Rewind())
	assert.EqualValues(t, 0, r.Lineno())

	_, err = r.ReadLine('\n')
	require.NoError(t, err)
	assert.EqualValues(t, 1, r.Lineno())
}

func TestModeErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := Open(ctx, s, "f", Mode(0), nil)
	assert.ErrorIs(t, err, ErrInvalidMode)
	_, err = Open(ctx, s, "f", ModeWrite, &Options{ChunkSize: -1})
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	writeFile(t, s, "f", []byte("data"), 4)

	_, err = Open(ctx, s, "f", ModeAppend, &Options{ChunkSize: 8})
	assert.ErrorIs(t, err, ErrChunkSizeFrozen)

	r, err := Open(ctx, s, "f", ModeRead, nil)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrNotWritable)
	assert.ErrorIs(t, r.PutByte('x'), ErrNotWritable)

	w, err := Open(ctx, s, "f", ModeWrite, nil)
	require.NoError(t, err)
	_, err = w.EOF()
	assert.ErrorIs(t, err, ErrNotOpenForRead)
	require.NoError(t, w.Close())
}

func TestChunkSizeOverrideOnRewrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	writeFile(t, s, "f", []byte("0123456789"), 4)

	// a fresh write-mode open may change the chunk size
	writeFile(t, s, "f", []byte("0123456789"), 3)

	info, err := s.LookupFile(ctx, DefaultRoot, "f")
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.ChunkSize)
	assert.Equal(t, "0123456789", string(readFile(t, s, "f")))
}

func TestOverwriteReplacesRecordAndChunks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	writeFile(t, s, "f", pattern(10), 4)

	first, err := s.LookupFile(ctx, DefaultRoot, "f")
	require.NoError(t, err)

	writeFile(t, s, "f", []byte("ab"), 4)

	second, err := s.LookupFile(ctx, DefaultRoot, "f")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(2), second.Length)
	assert.True(t, second.UploadDate.Equal(first.UploadDate))

	_, err = s.GetChunk(ctx, DefaultRoot, second.ID, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReadMissingFile(t *testing.T) {
	s := newTestStore(t)
	f, err := Open(context.Background(), s, "nope", ModeRead, nil)
	require.NoError(t, err)
	defer f.Close()

	data, err := f.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, data)

	eof, err := f.EOF()
	require.NoError(t, err)
	assert.True(t, eof)

	// read mode never mutates the store
	exists, err := Exists(context.Background(), s, "", "nope")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCloseIdempotentAndFinal(t *testing.T) {
	s := newTestStore(t)
	f, err := Open(context.Background(), s, "f", ModeWrite, &Options{ChunkSize: 4})
	require.NoError(t, err)
	_, err = f.WriteString("abc")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = f.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, f.Rewind(), ErrClosed)
}

func TestOptionsAtOpen(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	f, err := Open(ctx, s, "f", ModeWrite, &Options{
		Root:        "blobs",
		ContentType: "application/octet-stream",
		ChunkSize:   8,
		Metadata:    map[string]string{"origin": "unit-test"},
	})
	require.NoError(t, err)
	_, err = f.WriteString("payload")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	info, err := s.LookupFile(ctx, "blobs", "f")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", info.ContentType)
	assert.Equal(t, int64(8), info.ChunkSize)
	assert.Equal(t, "unit-test", info.Metadata["origin"])

	// nothing leaks into the default root
	_, err = s.LookupFile(ctx, DefaultRoot, "f")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPutByteAndPuts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	f, err := Open(ctx, s, "f", ModeWrite, &Options{ChunkSize: 2})
	require.NoError(t, err)
	for _, b := range []byte("abcde") {
		require.NoError(t, f.PutByte(b))
	}
	require.NoError(t, f.Puts("fg"))
	require.NoError(t, f.Close())

	assert.Equal(t, "abcdefg\n", string(readFile(t, s, "f")))
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"r": ModeRead, "rb": ModeRead,
		"w": ModeWrite, "wb": ModeWrite,
		"w+": ModeAppend, "a": ModeAppend, "ab": ModeAppend,
	}
	for s, want := range cases {
		m, err := ParseMode(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, m, s)
	}
	_, err := ParseMode("x")
	assert.ErrorIs(t, err, ErrInvalidMode)
	_, err = ParseMode("")
	assert.ErrorIs(t, err, ErrInvalidMode)
}
