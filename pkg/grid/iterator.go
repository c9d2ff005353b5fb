// pkg/grid/iterator.go

package grid

import (
	"errors"
	"io"
)

// LineIterator yields the lines of a file from the cursor's current
// position, one separator-terminated line per Next. It is lazy, finite
// and not restartable; rewind or reopen the file to iterate again.
type LineIterator struct {
	f    *File
	sep  byte
	line string
	err  error
	done bool
}

// Lines returns a line iterator bound to the cursor's current position.
func (f *File) Lines(sep byte) *LineIterator {
	return &LineIterator{f: f, sep: sep}
}

func (it *LineIterator) Next() bool {
	if it.done {
		return false
	}
	line, err := it.f.ReadLine(it.sep)
	if err != nil {
		it.done = true
		if !errors.Is(err, io.EOF) {
			it.err = err
		}
		return false
	}
	it.line = line
	return true
}

func (it *LineIterator) Text() string {
	return it.line
}

func (it *LineIterator) Err() error {
	return it.err
}

// ByteIterator yields the bytes of a file from the cursor's current
// position.
type ByteIterator struct {
	f    *File
	b    byte
	err  error
	done bool
}

// Bytes returns a byte iterator bound to the cursor's current position.
func (f *File) Bytes() *ByteIterator {
	return &ByteIterator{f: f}
}

func (it *ByteIterator) Next() bool {
	if it.done {
		return false
	}
	b, ok, err := it.f.GetByte()
	if err != nil || !ok {
		it.done = true
		it.err = err
		return false
	}
	it.b = b
	return true
}

func (it *ByteIterator) Byte() byte {
	return it.b
}

func (it *ByteIterator) Err() error {
	return it.err
}
