package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/companyzero/soundcore/internal/assert"
)

// oggPage is a decoded ogg page.
type oggPage struct {
	flags   byte
	granule uint64
	serial  uint32
	seq     uint32
	lacing  []byte
	payload []byte
}

// readOggPages decodes every page in b, verifying their checksums.
func readOggPages(t *testing.T, b []byte) []oggPage {
	t.Helper()
	var pages []oggPage
	for len(b) > 0 {
		if len(b) < oggHeaderSize || string(b[:4]) != oggSig {
			t.Fatalf("invalid page header at %d bytes from end", len(b))
		}
		nsegs := int(b[26])
		lacing := b[oggHeaderSize : oggHeaderSize+nsegs]
		size := 0
		for _, l := range lacing {
			size += int(l)
		}
		total := oggHeaderSize + nsegs + size
		page := append([]byte(nil), b[:total]...)

		wantCRC := binary.LittleEndian.Uint32(page[22:])
		binary.LittleEndian.PutUint32(page[22:], 0)
		var crc uint32
		for _, c := range page {
			crc = (crc << 8) ^ oggCRCTable[byte(crc>>24)^c]
		}
		assert.DeepEqual(t, crc, wantCRC)

		pages = append(pages, oggPage{
			flags:   b[5],
			granule: binary.LittleEndian.Uint64(b[6:]),
			serial:  binary.LittleEndian.Uint32(b[14:]),
			seq:     binary.LittleEndian.Uint32(b[18:]),
			lacing:  append([]byte(nil), lacing...),
			payload: append([]byte(nil), b[oggHeaderSize+nsegs:total]...),
		})
		b = b[total:]
	}
	return pages
}

// TestOggCRC asserts the checksum table matches the ogg reference values.
func TestOggCRC(t *testing.T) {
	t.Parallel()
	assert.DeepEqual(t, oggCRCTable[0], uint32(0))
	assert.DeepEqual(t, oggCRCTable[1], uint32(0x04c11db7))
	assert.DeepEqual(t, oggCRCTable[255], uint32(0xb1f740b4))
}

// TestOggLacing asserts payload sizes are encoded with the right lacing
// values.
func TestOggLacing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		size   int
		lacing []byte
	}{
		{size: 0, lacing: []byte{0}},
		{size: 10, lacing: []byte{10}},
		{size: 255, lacing: []byte{255, 0}},
		{size: 600, lacing: []byte{255, 255, 90}},
	}

	var buf bytes.Buffer
	w := NewOggWriter(&buf)
	for i, tc := range tests {
		payload := bytes.Repeat([]byte{byte(i + 1)}, tc.size)
		assert.NilErr(t, w.WritePacket(payload, uint64(i*100), i == 0, false))
	}
	assert.NonNilErr(t, w.WritePacket(make([]byte, maxOggPayload), 0, false, false))
	assert.DeepEqual(t, w.Pages(), uint32(len(tests)))

	pages := readOggPages(t, buf.Bytes())
	assert.DeepEqual(t, len(pages), len(tests))
	for i, tc := range tests {
		assert.DeepEqual(t, pages[i].lacing, tc.lacing)
		assert.DeepEqual(t, len(pages[i].payload), tc.size)
		assert.DeepEqual(t, pages[i].seq, uint32(i))
		assert.DeepEqual(t, pages[i].serial, pages[0].serial)
		assert.DeepEqual(t, pages[i].granule, uint64(i*100))
	}
	assert.DeepEqual(t, pages[0].flags, byte(oggFlagFirst))
	assert.DeepEqual(t, pages[1].flags, byte(0))
}

// TestOpusFileWriter asserts the opus headers and the granule positions of
// the written packets.
func TestOpusFileWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w, err := NewOpusFileWriter(&buf, 2, "soundcore")
	assert.NilErr(t, err)
	assert.NilErr(t, w.WritePacket([]byte{1, 2, 3}, 960, false))
	assert.NilErr(t, w.WritePacket([]byte{4, 5}, 960, false))
	assert.NilErr(t, w.Finish())
	assert.DeepEqual(t, w.Granule(), uint64(1920))

	pages := readOggPages(t, buf.Bytes())
	assert.DeepEqual(t, len(pages), 5)

	head := pages[0].payload
	assert.DeepEqual(t, string(head[:8]), opusHeadSig)
	assert.DeepEqual(t, head[9], byte(2))
	assert.DeepEqual(t, binary.LittleEndian.Uint32(head[12:]), uint32(OpusSampleRate))
	assert.DeepEqual(t, pages[0].flags, byte(oggFlagFirst))

	tags := pages[1].payload
	assert.DeepEqual(t, string(tags[:8]), opusTagsSig)
	assert.DeepEqual(t, string(tags[12:21]), "soundcore")

	assert.DeepEqual(t, pages[2].granule, uint64(960))
	assert.DeepEqual(t, pages[3].granule, uint64(1920))
	assert.DeepEqual(t, pages[4].flags, byte(oggFlagLast))
	assert.DeepEqual(t, len(pages[4].payload), 0)
}

// TestDeviceHandles asserts handles round trip to the platform IDs.
func TestDeviceHandles(t *testing.T) {
	t.Parallel()

	id := make([]byte, 16)
	copy(id, "hw:1,0")
	h := encodeHandle(id)
	assert.DeepEqual(t, h, "68773a312c30")
	got, err := decodeHandle(h)
	assert.NilErr(t, err)
	assert.DeepEqual(t, got, []byte("hw:1,0"))

	assert.DeepEqual(t, encodeHandle(make([]byte, 8)), "")
	_, err = decodeHandle("zz")
	assert.NonNilErr(t, err)
}
