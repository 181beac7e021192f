package raster

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
)

// Resolution is pixel density in dots per inch
type Resolution struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Valid reports whether both axes are positive
func (r Resolution) Valid() bool {
	return r.X > 0 && r.Y > 0
}

func (r Resolution) String() string {
	return fmt.Sprintf("%g x %g", r.X, r.Y)
}

const metersPerInch = 0.0254

var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
	jfifIdent    = []byte("JFIF\x00")
)

// ReadResolution returns the density stored in a PNG pHYs chunk or a JPEG
// JFIF header. ok is false when the file carries no usable density.
func ReadResolution(path string) (res Resolution, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return Resolution{}, false, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(8)
	if err != nil && !errors.Is(err, io.EOF) {
		return Resolution{}, false, err
	}

	switch {
	case bytes.Equal(head, pngSignature):
		return readPNGResolution(br)
	case len(head) >= 2 && head[0] == 0xFF && head[1] == 0xD8:
		return readJPEGResolution(br)
	}
	return Resolution{}, false, nil
}

func readPNGResolution(r io.Reader) (Resolution, bool, error) {
	if _, err := io.CopyN(io.Discard, r, 8); err != nil {
		return Resolution{}, false, err
	}

	var hdr [8]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return Resolution{}, false, nil
		}
		length := binary.BigEndian.Uint32(hdr[:4])
		typ := string(hdr[4:8])

		switch typ {
		case "pHYs":
			if length != 9 {
				return Resolution{}, false, fmt.Errorf("invalid pHYs length %d", length)
			}
			var data [9]byte
			if _, err := io.ReadFull(r, data[:]); err != nil {
				return Resolution{}, false, err
			}
			if data[8] != 1 {
				// unit unknown: aspect ratio only
				return Resolution{}, false, nil
			}
			res := Resolution{
				X: snap(float64(binary.BigEndian.Uint32(data[0:4])) * metersPerInch),
				Y: snap(float64(binary.BigEndian.Uint32(data[4:8])) * metersPerInch),
			}
			return res, res.Valid(), nil
		case "IDAT", "IEND":
			return Resolution{}, false, nil
		}

		if _, err := io.CopyN(io.Discard, r, int64(length)+4); err != nil {
			return Resolution{}, false, nil
		}
	}
}

func readJPEGResolution(r io.Reader) (Resolution, bool, error) {
	if _, err := io.CopyN(io.Discard, r, 2); err != nil {
		return Resolution{}, false, err
	}

	var hdr [4]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return Resolution{}, false, nil
		}
		if hdr[0] != 0xFF {
			return Resolution{}, false, nil
		}
		marker := hdr[1]
		length := int(binary.BigEndian.Uint16(hdr[2:4])) - 2
		if length < 0 || marker == 0xDA {
			return Resolution{}, false, nil
		}

		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return Resolution{}, false, nil
		}
		if marker != 0xE0 || len(data) < 12 || !bytes.Equal(data[:5], jfifIdent) {
			continue
		}

		units := data[7]
		x := float64(binary.BigEndian.Uint16(data[8:10]))
		y := float64(binary.BigEndian.Uint16(data[10:12]))
		switch units {
		case 1:
		case 2:
			x, y = snap(x*2.54), snap(y*2.54)
		default:
			return Resolution{}, false, nil
		}
		res := Resolution{X: x, Y: y}
		return res, res.Valid(), nil
	}
}

// snap rounds densities that only lost precision in unit conversion. Whole
// dpi values stored as pixels per meter come back within 0.0127.
func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < 0.015 {
		return r
	}
	return v
}

// withPHYs inserts a pHYs chunk after the IHDR chunk of an encoded PNG
func withPHYs(encoded []byte, res Resolution) ([]byte, error) {
	const ihdrEnd = 8 + 8 + 13 + 4
	if len(encoded) < ihdrEnd || !bytes.Equal(encoded[:8], pngSignature) {
		return nil, errors.New("not a PNG stream")
	}

	var chunk bytes.Buffer
	data := make([]byte, 9)
	binary.BigEndian.PutUint32(data[0:4], uint32(math.Round(res.X/metersPerInch)))
	binary.BigEndian.PutUint32(data[4:8], uint32(math.Round(res.Y/metersPerInch)))
	data[8] = 1

	var word [4]byte
	binary.BigEndian.PutUint32(word[:], uint32(len(data)))
	chunk.Write(word[:])
	crc := crc32.NewIEEE()
	chunk.WriteString("pHYs")
	crc.Write([]byte("pHYs"))
	chunk.Write(data)
	crc.Write(data)
	binary.BigEndian.PutUint32(word[:], crc.Sum32())
	chunk.Write(word[:])

	out := make([]byte, 0, len(encoded)+chunk.Len())
	out = append(out, encoded[:ihdrEnd]...)
	out = append(out, chunk.Bytes()...)
	out = append(out, encoded[ihdrEnd:]...)
	return out, nil
}

// withJFIF inserts a JFIF APP0 segment carrying the density after SOI
func withJFIF(encoded []byte, res Resolution) ([]byte, error) {
	if len(encoded) < 2 || encoded[0] != 0xFF || encoded[1] != 0xD8 {
		return nil, errors.New("not a JPEG stream")
	}

	clamp := func(v float64) uint16 {
		return uint16(math.Max(1, math.Min(math.Round(v), math.MaxUint16)))
	}

	seg := make([]byte, 18)
	seg[0], seg[1] = 0xFF, 0xE0
	binary.BigEndian.PutUint16(seg[2:4], 16)
	copy(seg[4:9], jfifIdent)
	seg[9], seg[10] = 1, 1
	seg[11] = 1
	binary.BigEndian.PutUint16(seg[12:14], clamp(res.X))
	binary.BigEndian.PutUint16(seg[14:16], clamp(res.Y))
	// no thumbnail
	seg[16], seg[17] = 0, 0

	out := make([]byte, 0, len(encoded)+len(seg))
	out = append(out, encoded[:2]...)
	out = append(out, seg...)
	out = append(out, encoded[2:]...)
	return out, nil
}
