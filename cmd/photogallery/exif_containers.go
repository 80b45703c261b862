package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/abema/go-mp4"
)

var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")

	errNoExif   = errors.New("no exif data in container")
	errShortBox = errors.New("truncated box")
)

// exifPayload returns a reader positioned on the EXIF data of r, sniffing the
// container from its first bytes. JPEG and TIFF are returned as is since the
// exif decoder reads them directly.
func exifPayload(r io.ReadSeeker) (io.Reader, error) {
	head := make([]byte, 12)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	head = head[:n]
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(head, pngSignature):
		return pngExif(r)
	case len(head) == 12 && string(head[0:4]) == "RIFF" && string(head[8:12]) == "WEBP":
		return webpExif(r)
	case len(head) >= 8 && string(head[4:8]) == "ftyp":
		return heifExif(r)
	}
	return r, nil
}

// pngExif returns the payload of the eXIf chunk
func pngExif(r io.ReadSeeker) (io.Reader, error) {
	if _, err := r.Seek(int64(len(pngSignature)), io.SeekStart); err != nil {
		return nil, err
	}

	hdr := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, hdr); err != nil {
			return nil, errNoExif
		}
		length := int64(binary.BigEndian.Uint32(hdr[0:4]))

		switch string(hdr[4:8]) {
		case "eXIf":
			return io.LimitReader(r, length), nil
		case "IEND":
			return nil, errNoExif
		}

		// skip data and CRC
		if _, err := r.Seek(length+4, io.SeekCurrent); err != nil {
			return nil, err
		}
	}
}

// webpExif returns the payload of the EXIF chunk of a RIFF WebP file
func webpExif(r io.ReadSeeker) (io.Reader, error) {
	if _, err := r.Seek(12, io.SeekStart); err != nil {
		return nil, err
	}

	hdr := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, hdr); err != nil {
			return nil, errNoExif
		}
		length := int64(binary.LittleEndian.Uint32(hdr[4:8]))

		if string(hdr[0:4]) == "EXIF" {
			return io.LimitReader(r, length), nil
		}

		// chunks are padded to an even size
		if _, err := r.Seek(length+length&1, io.SeekCurrent); err != nil {
			return nil, err
		}
	}
}

// heifExif locates the Exif item through meta/iinf and meta/iloc and returns
// the TIFF data it holds.
func heifExif(r io.ReadSeeker) (io.Reader, error) {
	boxes, err := mp4.ExtractBoxes(r, nil, []mp4.BoxPath{
		{mp4.BoxTypeMeta(), mp4.StrToBoxType("iinf")},
		{mp4.BoxTypeMeta(), mp4.StrToBoxType("iloc")},
	})
	if err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}

	var iinf, iloc []byte
	for _, bi := range boxes {
		payload, err := readBoxPayload(r, bi)
		if err != nil {
			return nil, err
		}
		switch bi.Type {
		case mp4.StrToBoxType("iinf"):
			iinf = payload
		case mp4.StrToBoxType("iloc"):
			iloc = payload
		}
	}
	if iinf == nil || iloc == nil {
		return nil, errNoExif
	}

	itemID, err := findExifItem(iinf)
	if err != nil {
		return nil, err
	}
	extents, err := findItemExtents(iloc, itemID)
	if err != nil {
		return nil, err
	}

	var data []byte
	for _, e := range extents {
		chunk := make([]byte, e.length)
		if _, err := r.Seek(int64(e.offset), io.SeekStart); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil, fmt.Errorf("reading exif item: %w", err)
		}
		data = append(data, chunk...)
	}

	// The item starts with the offset of the TIFF header past this field
	if len(data) < 4 {
		return nil, errShortBox
	}
	start := 4 + uint64(binary.BigEndian.Uint32(data[0:4]))
	if start > uint64(len(data)) {
		return nil, errShortBox
	}
	return bytes.NewReader(data[start:]), nil
}

func readBoxPayload(r io.ReadSeeker, bi *mp4.BoxInfo) ([]byte, error) {
	if _, err := bi.SeekToPayload(r); err != nil {
		return nil, err
	}
	payload := make([]byte, bi.Size-bi.HeaderSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("reading %s: %w", bi.Type, err)
	}
	return payload, nil
}

// boxReader reads big-endian fields from a box payload. The first short
// read sticks in err and every later read returns zero.
type boxReader struct {
	b   []byte
	err error
}

func (br *boxReader) uint(size int) uint64 {
	var v uint64
	for _, c := range br.bytes(size) {
		v = v<<8 | uint64(c)
	}
	return v
}

func (br *boxReader) bytes(n int) []byte {
	if br.err != nil {
		return nil
	}
	if n < 0 || len(br.b) < n {
		br.err = errShortBox
		return nil
	}
	v := br.b[:n]
	br.b = br.b[n:]
	return v
}

// findExifItem returns the id of the item of type Exif listed in iinf
func findExifItem(iinf []byte) (uint64, error) {
	br := &boxReader{b: iinf}
	version := br.uint(1)
	br.uint(3)
	count := br.uint(2)
	if version != 0 {
		count = count<<16 | br.uint(2)
	}

	for i := uint64(0); i < count && br.err == nil; i++ {
		size := br.uint(4)
		typ := string(br.bytes(4))
		if size < 8 {
			return 0, errShortBox
		}
		infe := &boxReader{b: br.bytes(int(size - 8))}
		if typ != "infe" {
			continue
		}

		v := infe.uint(1)
		infe.uint(3)
		if v < 2 {
			continue
		}
		idSize := 2
		if v >= 3 {
			idSize = 4
		}
		id := infe.uint(idSize)
		infe.uint(2) // protection index
		if string(infe.bytes(4)) == "Exif" && infe.err == nil {
			return id, nil
		}
	}
	if br.err != nil {
		return 0, br.err
	}
	return 0, errNoExif
}

type itemExtent struct {
	offset uint64
	length uint64
}

// findItemExtents returns the file ranges iloc gives for itemID. Only items
// stored at file offsets are supported.
func findItemExtents(iloc []byte, itemID uint64) ([]itemExtent, error) {
	br := &boxReader{b: iloc}
	version := br.uint(1)
	br.uint(3)
	sizes := br.uint(1)
	offsetSize, lengthSize := int(sizes>>4), int(sizes&0x0f)
	sizes = br.uint(1)
	baseOffsetSize, indexSize := int(sizes>>4), 0
	if version == 1 || version == 2 {
		indexSize = int(sizes & 0x0f)
	}

	idSize := 2
	if version == 2 {
		idSize = 4
	}
	count := br.uint(idSize)

	for i := uint64(0); i < count && br.err == nil; i++ {
		id := br.uint(idSize)
		method := uint64(0)
		if version == 1 || version == 2 {
			method = br.uint(2) & 0x0f
		}
		br.uint(2) // data reference index
		base := br.uint(baseOffsetSize)
		extentCount := br.uint(2)

		extents := make([]itemExtent, 0, extentCount)
		for j := uint64(0); j < extentCount && br.err == nil; j++ {
			br.uint(indexSize)
			offset := br.uint(offsetSize)
			length := br.uint(lengthSize)
			extents = append(extents, itemExtent{offset: base + offset, length: length})
		}

		if id != itemID || br.err != nil {
			continue
		}
		if method != 0 {
			return nil, fmt.Errorf("unsupported construction method %d", method)
		}
		for _, e := range extents {
			if e.length == 0 {
				return nil, fmt.Errorf("open ended extent for item %d", itemID)
			}
		}
		return extents, nil
	}
	if br.err != nil {
		return nil, br.err
	}
	return nil, errNoExif
}
