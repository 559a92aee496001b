package splitter

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/prxssh/foldcount/api"
	"golang.org/x/text/encoding/unicode"
)

// BlockSize returns the number of bytes read per block when splitting size
// bytes into folds chunks.
func BlockSize(size int64, folds int) int64 {
	if size <= 0 || folds < 1 {
		return 0
	}
	return (size + int64(folds) - 1) / int64(folds)
}

// Split divides r into word-aligned chunks.
//
// The source is read in blocks of BlockSize(size, folds) bytes. A trailing
// partial word of each block is carried into the next one, so every chunk
// boundary falls on whitespace and the number of chunks never exceeds
// folds+1. A negative size means the length is unknown; the whole source is
// buffered first. Ill-formed UTF-8 is replaced with U+FFFD.
func Split(r io.Reader, size int64, folds int) ([]string, error) {
	if folds < 1 {
		return nil, fmt.Errorf("splitter: folds must be at least 1, got %d", folds)
	}

	if size < 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, api.SourceReadError.Wrap(err)
		}
		r = bytes.NewReader(data)
		size = int64(len(data))
	}

	if size == 0 {
		return nil, nil
	}

	br := bufio.NewReader(r)
	buf := make([]byte, BlockSize(size, folds))

	var (
		chunks   []string
		leftover string
		// pending holds the bytes of a rune cut in half by a block boundary.
		pending []byte
	)

	for {
		n, eof, err := readBlock(br, buf)
		if err != nil {
			return nil, api.SourceReadError.Wrap(err)
		}

		block := append(pending, buf[:n]...)
		pending = nil

		if eof {
			if text := leftover + decode(block); text != "" {
				chunks = append(chunks, text)
			}
			return chunks, nil
		}

		if cut := incompleteTail(block); cut < len(block) {
			pending = bytes.Clone(block[cut:])
			block = block[:cut]
		}

		text := leftover + decode(block)
		leftover = ""

		switch i := strings.LastIndexFunc(text, IsSpace); {
		case i < 0:
			leftover = text
		case i == len(text)-1:
			chunks = append(chunks, text)
		default:
			chunks = append(chunks, text[:i+1])
			leftover = strings.TrimLeftFunc(text[i+1:], IsSpace)
		}
	}
}

// readBlock fills buf from br and reports whether the source is exhausted
// after this block.
func readBlock(br *bufio.Reader, buf []byte) (int, bool, error) {
	n, err := io.ReadFull(br, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, true, nil
	}
	if err != nil {
		return n, false, err
	}

	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return n, true, nil
		}
		return n, false, err
	}

	return n, false, nil
}

// IsSpace reports whether r is one of the ASCII whitespace characters chunk
// boundaries are placed on.
func IsSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// incompleteTail returns the offset of a truncated multi-byte rune at the end
// of b, or len(b) when b ends on a rune boundary.
func incompleteTail(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return i
		}
		break
	}
	return len(b)
}

func decode(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	return string(out)
}
