package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand/v2"
)

const (
	oggSig        = "OggS"
	oggHeaderSize = 27

	// maxOggPayload is the largest payload that fits a single page.
	maxOggPayload = 255 * 255

	oggFlagContinued = 0x1
	oggFlagFirst     = 0x2
	oggFlagLast      = 0x4
)

var oggCRCTable = oggCRC()

// oggCRC builds the table of the CRC32 variant (poly 0x04c11db7, no
// reflection) used by ogg pages.
func oggCRC() *[256]uint32 {
	var table [256]uint32
	const poly = 0x04c11db7

	for i := range table {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = (r << 1) ^ poly
			} else {
				r <<= 1
			}
		}
		table[i] = r
	}
	return &table
}

// OggWriter writes a single logical bitstream as a sequence of ogg pages, one
// packet per page.
type OggWriter struct {
	w      io.Writer
	serial uint32
	seq    uint32
	buf    []byte
}

// NewOggWriter returns a writer of a new bitstream with a random serial.
func NewOggWriter(w io.Writer) *OggWriter {
	return &OggWriter{
		w:      w,
		serial: rand.Uint32(),
		buf:    make([]byte, 0, oggHeaderSize+255+1024),
	}
}

// Pages returns the number of pages written.
func (o *OggWriter) Pages() uint32 {
	return o.seq
}

// WritePacket writes payload in its own page.
func (o *OggWriter) WritePacket(payload []byte, granule uint64, first, last bool) error {
	if len(payload) >= maxOggPayload {
		return fmt.Errorf("ogg packet of %d bytes does not fit a page", len(payload))
	}

	// Lacing values: full segments of 255 bytes, then the remainder,
	// which is 0 when the payload is a multiple of 255.
	nsegs := len(payload)/255 + 1
	size := oggHeaderSize + nsegs + len(payload)
	buf := o.buf[:0]
	if cap(buf) < size {
		buf = make([]byte, 0, size)
	}
	buf = buf[:size]

	var flags byte
	if first {
		flags |= oggFlagFirst
	}
	if last {
		flags |= oggFlagLast
	}
	copy(buf, oggSig)
	buf[4] = 0
	buf[5] = flags
	binary.LittleEndian.PutUint64(buf[6:], granule)
	binary.LittleEndian.PutUint32(buf[14:], o.serial)
	binary.LittleEndian.PutUint32(buf[18:], o.seq)
	binary.LittleEndian.PutUint32(buf[22:], 0)
	buf[26] = byte(nsegs)
	for i := 0; i < nsegs-1; i++ {
		buf[oggHeaderSize+i] = 255
	}
	buf[oggHeaderSize+nsegs-1] = byte(len(payload) % 255)
	copy(buf[oggHeaderSize+nsegs:], payload)

	var crc uint32
	for _, b := range buf {
		crc = (crc << 8) ^ oggCRCTable[byte(crc>>24)^b]
	}
	binary.LittleEndian.PutUint32(buf[22:], crc)
	o.buf = buf

	if _, err := o.w.Write(buf); err != nil {
		return err
	}
	o.seq++
	return nil
}

const (
	opusHeadSig = "OpusHead"
	opusTagsSig = "OpusTags"

	// OpusSampleRate is the granule rate of ogg/opus streams.
	OpusSampleRate = 48000
)

// OpusFileWriter writes opus packets into an ogg/opus file.
type OpusFileWriter struct {
	ogg     *OggWriter
	granule uint64
}

// NewOpusFileWriter writes the ogg/opus headers for a stream with the given
// number of channels and returns a writer for its packets.
func NewOpusFileWriter(w io.Writer, channels int, vendor string) (*OpusFileWriter, error) {
	ogg := NewOggWriter(w)

	head := make([]byte, 19)
	copy(head, opusHeadSig)
	head[8] = 1 // version
	head[9] = byte(channels)
	binary.LittleEndian.PutUint16(head[10:], 0) // pre-skip
	binary.LittleEndian.PutUint32(head[12:], OpusSampleRate)
	binary.LittleEndian.PutUint16(head[16:], 0) // output gain
	head[18] = 0                                // mapping family
	if err := ogg.WritePacket(head, 0, true, false); err != nil {
		return nil, err
	}

	tags := make([]byte, 8+4+len(vendor)+4)
	copy(tags, opusTagsSig)
	binary.LittleEndian.PutUint32(tags[8:], uint32(len(vendor)))
	copy(tags[12:], vendor)
	binary.LittleEndian.PutUint32(tags[12+len(vendor):], 0)
	if err := ogg.WritePacket(tags, 0, false, false); err != nil {
		return nil, err
	}

	return &OpusFileWriter{ogg: ogg}, nil
}

// WritePacket writes an encoded packet holding pcmSamples samples per
// channel.
func (w *OpusFileWriter) WritePacket(p []byte, pcmSamples int, last bool) error {
	w.granule += uint64(pcmSamples)
	return w.ogg.WritePacket(p, w.granule, false, last)
}

// Finish writes an empty last page to terminate the stream.
func (w *OpusFileWriter) Finish() error {
	return w.ogg.WritePacket(nil, w.granule, false, true)
}

// Granule returns the number of samples per channel written.
func (w *OpusFileWriter) Granule() uint64 {
	return w.granule
}
