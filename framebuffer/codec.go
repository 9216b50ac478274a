package framebuffer

import (
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	dataLayoutVersion = 1

	// Headers are a handful of fields; anything larger is corrupt.
	maxHeaderLength = 1 << 16
)

// Read parses a frame written by Write.
//
// The layout is an 8-byte little-endian header length, a protobuf Struct
// header, and a zlib stream holding the red, green, and blue channels in
// that order.
func Read(in io.Reader) (*Frame, error) {
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, fmt.Errorf("while reading header length: %w", err)
	}
	if headerLength > maxHeaderLength {
		return nil, fmt.Errorf("header length %d exceeds limit %d", headerLength, maxHeaderLength)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, fmt.Errorf("while reading header bytes: %w", err)
	}

	hdr := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, hdr); err != nil {
		return nil, fmt.Errorf("while unmarshaling header: %w", err)
	}

	fields := hdr.GetFields()
	if v := fields["dataLayoutVersion"].GetNumberValue(); v != dataLayoutVersion {
		return nil, fmt.Errorf("bad data layout version: %v", v)
	}

	width := fields["width"].GetNumberValue()
	height := fields["height"].GetNumberValue()
	if width < 0 || height < 0 || width != float64(int(width)) || height != float64(int(height)) {
		return nil, fmt.Errorf("bad frame dimensions %vx%v", width, height)
	}
	if width*height > 1<<28 {
		return nil, fmt.Errorf("frame dimensions %vx%v are too large", width, height)
	}

	requestNo, err := strconv.ParseInt(fields["requestNo"].GetStringValue(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("while parsing request number: %w", err)
	}

	f := New(int(width), int(height))
	f.RequestNo = requestNo

	zipReader, err := zlib.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	for _, ch := range [][]uint8{f.Red, f.Green, f.Blue} {
		if _, err := io.ReadFull(zipReader, ch); err != nil {
			return nil, fmt.Errorf("while reading channel data: %w", err)
		}
	}

	// Reading to EOF makes the zlib reader verify its checksum.
	if n, err := zipReader.Read(make([]byte, 1)); n != 0 || err != io.EOF {
		if err == nil || err == io.EOF {
			return nil, fmt.Errorf("while reading channel data: trailing data after channels")
		}
		return nil, fmt.Errorf("while reading channel data: %w", err)
	}

	return f, nil
}

func ReadFromFile(name string) (*Frame, error) {
	in, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("while opening file: %w", err)
	}
	defer in.Close()

	return Read(in)
}

// Write serializes f.  See Read for the layout.
func Write(f *Frame, w io.Writer) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("while validating frame: %w", err)
	}

	hdr, err := structpb.NewStruct(map[string]interface{}{
		"width":             f.Width,
		"height":            f.Height,
		"requestNo":         strconv.FormatInt(f.RequestNo, 10),
		"dataLayoutVersion": dataLayoutVersion,
	})
	if err != nil {
		return fmt.Errorf("while building header: %w", err)
	}

	hdrBytes, err := proto.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	zipWriter := zlib.NewWriter(w)
	for _, ch := range [][]uint8{f.Red, f.Green, f.Blue} {
		if _, err := zipWriter.Write(ch); err != nil {
			return fmt.Errorf("while writing channel data: %w", err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("while closing zip writer: %w", err)
	}

	return nil
}

func WriteToFile(f *Frame, name string) error {
	out, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("while creating file: %w", err)
	}

	if err := Write(f, out); err != nil {
		out.Close()
		return err
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("while closing file: %w", err)
	}
	return nil
}
