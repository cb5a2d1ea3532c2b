package odf

import (
	"bufio"
	"bytes"
)

// entryBuffer stages the content of the open entry. Text is always UTF-8;
// Go strings already are, so no transcoding happens.
type entryBuffer struct {
	data bytes.Buffer
	text *bufio.Writer // nil when the text buffer is disabled
}

func newEntryBuffer(textSize int) *entryBuffer {
	b := &entryBuffer{}
	if textSize > 0 {
		b.text = bufio.NewWriterSize(&b.data, textSize)
	}
	return b
}

func (b *entryBuffer) Write(p []byte) (int, error) {
	if b.text != nil {
		return b.text.Write(p)
	}
	return b.data.Write(p)
}

func (b *entryBuffer) WriteString(s string) (int, error) {
	if b.text != nil {
		return b.text.WriteString(s)
	}
	return b.data.WriteString(s)
}

func (b *entryBuffer) WriteRune(r rune) (int, error) {
	if b.text != nil {
		return b.text.WriteRune(r)
	}
	return b.data.WriteRune(r)
}

// Flush moves pending text into the byte sink.
func (b *entryBuffer) Flush() error {
	if b.text != nil {
		return b.text.Flush()
	}
	return nil
}

// Bytes flushes and returns everything written so far. The slice aliases
// the buffer and is only valid until the next write.
func (b *entryBuffer) Bytes() ([]byte, error) {
	if err := b.Flush(); err != nil {
		return nil, err
	}
	return b.data.Bytes(), nil
}

// Len reports the bytes staged so far, including pending text.
func (b *entryBuffer) Len() int {
	n := b.data.Len()
	if b.text != nil {
		n += b.text.Buffered()
	}
	return n
}
