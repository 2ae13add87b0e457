package datasource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"
)

const (
	blockSize = 2880
	cardSize  = 80
)

// segment locates one HDU inside a FITS file.
type segment struct {
	offset  int64  // first byte of the header
	header  []byte // raw header blocks
	dataLen int64  // data bytes including block padding
	table   bool

	// sizing holds the integer cards that size the data, with their card
	// index, so a header-only copy can be built and its values restored.
	sizing map[string]sizingCard
}

type sizingCard struct {
	index int
	value int64
}

// emptyPrimary is a data-less primary HDU put in front of an extension so
// fitsio can decode the extension on its own.
var emptyPrimary = blockPad(
	logicalCard("SIMPLE", true),
	intCard("BITPIX", 8),
	intCard("NAXIS", 0),
	logicalCard("EXTEND", true),
	[]byte("END"),
)

// indexSegments walks the file header by header, skipping over the data.
func indexSegments(r io.ReaderAt, size int64) ([]segment, error) {
	var segs []segment
	var off int64
	for off+blockSize <= size {
		seg, err := readSegmentHeader(r, off)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
		off += int64(len(seg.header)) + seg.dataLen
	}
	if off > size {
		return nil, fmt.Errorf("segment %d is truncated", len(segs)-1)
	}
	if len(segs) == 0 {
		return nil, errors.New("no header found")
	}
	return segs, nil
}

func readSegmentHeader(r io.ReaderAt, off int64) (segment, error) {
	seg := segment{offset: off, sizing: make(map[string]sizingCard)}
	block := make([]byte, blockSize)
	for {
		if _, err := r.ReadAt(block, off+int64(len(seg.header))); err != nil {
			return segment{}, fmt.Errorf("header at byte %d: %w", off, err)
		}
		first := len(seg.header) / cardSize
		seg.header = append(seg.header, block...)

		for i := 0; i < blockSize/cardSize; i++ {
			card := block[i*cardSize : (i+1)*cardSize]
			key := strings.TrimSpace(string(card[:8]))
			if key == "END" {
				n, err := seg.dataSize()
				if err != nil {
					return segment{}, fmt.Errorf("header at byte %d: %w", off, err)
				}
				seg.dataLen = n
				return seg, nil
			}
			if key == "XTENSION" {
				kind := stringValue(cardValue(card))
				seg.table = kind == "BINTABLE" || kind == "TABLE"
			}
			if isSizingKey(key) {
				v, err := strconv.ParseInt(strings.TrimSpace(cardValue(card)), 10, 64)
				if err != nil {
					return segment{}, fmt.Errorf("card %s: %w", key, err)
				}
				seg.sizing[key] = sizingCard{index: first + i, value: v}
			}
		}
	}
}

func isSizingKey(key string) bool {
	switch key {
	case "BITPIX", "NAXIS", "PCOUNT", "GCOUNT", "THEAP":
		return true
	}
	if rest, ok := strings.CutPrefix(key, "NAXIS"); ok {
		_, err := strconv.Atoi(rest)
		return err == nil
	}
	return false
}

// cardValue returns the value field of a fixed-format card, without its
// comment.
func cardValue(card []byte) string {
	if string(card[8:10]) != "= " {
		return ""
	}
	v := string(card[10:])
	if strings.HasPrefix(strings.TrimSpace(v), "'") {
		return v
	}
	v, _, _ = strings.Cut(v, "/")
	return v
}

// stringValue extracts a quoted card value, e.g. 'BINTABLE'.
func stringValue(v string) string {
	_, rest, ok := strings.Cut(v, "'")
	if !ok {
		return ""
	}
	body, _, _ := strings.Cut(rest, "'")
	return strings.TrimSpace(body)
}

// dataSize follows the FITS rule |BITPIX| * GCOUNT * (PCOUNT + prod NAXISn)
// bits, padded to whole blocks.
func (s segment) dataSize() (int64, error) {
	bitpix, ok := s.sizing["BITPIX"]
	if !ok {
		return 0, errors.New("missing BITPIX")
	}
	naxis, ok := s.sizing["NAXIS"]
	if !ok {
		return 0, errors.New("missing NAXIS")
	}
	if naxis.value == 0 {
		return 0, nil
	}
	n := int64(1)
	for i := int64(1); i <= naxis.value; i++ {
		c, ok := s.sizing[fmt.Sprintf("NAXIS%d", i)]
		if !ok {
			return 0, fmt.Errorf("missing NAXIS%d", i)
		}
		n *= c.value
	}
	gcount := int64(1)
	if c, ok := s.sizing["GCOUNT"]; ok {
		gcount = c.value
	}
	n = (n + s.sizing["PCOUNT"].value) * gcount
	bytesLen := abs(bitpix.value) / 8 * n
	if rem := bytesLen % blockSize; rem != 0 {
		bytesLen += blockSize - rem
	}
	return bytesLen, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// headerOnly returns a copy of the header rewritten to describe no data:
// images get a zero first axis, tables zero rows and no heap.
func (s segment) headerOnly() []byte {
	out := bytes.Clone(s.header)
	keys := []string{"NAXIS1"}
	if s.table {
		keys = []string{"NAXIS2", "PCOUNT", "THEAP"}
	}
	for _, key := range keys {
		if c, ok := s.sizing[key]; ok {
			copy(out[c.index*cardSize:], intCard(key, 0))
		}
	}
	return out
}

// restore puts the real sizing values back into a decoded header map.
func (s segment) restore(m map[string]any) {
	for key, c := range s.sizing {
		m[key] = int(c.value)
	}
}

// open decodes this segment alone from r. It returns the decoded file and
// the index of the segment in it.
func (s segment) open(r io.ReaderAt) (*fitsio.File, int, error) {
	var in io.Reader = io.NewSectionReader(r, s.offset, int64(len(s.header))+s.dataLen)
	idx := 0
	if s.offset > 0 {
		in = io.MultiReader(bytes.NewReader(emptyPrimary), in)
		idx = 1
	}
	ff, err := fitsio.Open(in)
	if err != nil {
		return nil, 0, err
	}
	if len(ff.HDUs()) <= idx {
		ff.Close()
		return nil, 0, errors.New("segment did not decode")
	}
	return ff, idx, nil
}

// decodeHeaders decodes the header of every segment in one pass over the
// header-only copies, without touching any data on disk.
func decodeHeaders(segs []segment) ([]map[string]any, error) {
	parts := make([]io.Reader, len(segs))
	for i, seg := range segs {
		parts[i] = bytes.NewReader(seg.headerOnly())
	}
	ff, err := fitsio.Open(io.MultiReader(parts...))
	if err != nil {
		return nil, err
	}
	defer ff.Close()

	hdus := ff.HDUs()
	if len(hdus) != len(segs) {
		return nil, fmt.Errorf("decoded %d headers, indexed %d segments", len(hdus), len(segs))
	}
	headers := make([]map[string]any, len(hdus))
	for i, hdu := range hdus {
		headers[i] = headerMap(hdu.Header())
		segs[i].restore(headers[i])
	}
	return headers, nil
}

func intCard(key string, v int64) []byte {
	return []byte(fmt.Sprintf("%-8s= %20d%50s", key, v, ""))
}

func logicalCard(key string, v bool) []byte {
	val := "F"
	if v {
		val = "T"
	}
	return []byte(fmt.Sprintf("%-8s= %20s%50s", key, val, ""))
}

// blockPad joins cards and pads them with blanks to a whole block.
func blockPad(cards ...[]byte) []byte {
	var buf bytes.Buffer
	for _, c := range cards {
		buf.Write(c)
		if pad := cardSize - len(c)%cardSize; pad < cardSize {
			buf.Write(bytes.Repeat([]byte(" "), pad))
		}
	}
	if rem := buf.Len() % blockSize; rem != 0 {
		buf.Write(bytes.Repeat([]byte(" "), blockSize-rem))
	}
	return buf.Bytes()
}
