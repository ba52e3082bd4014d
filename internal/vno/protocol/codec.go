package protocol

import (
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultMaxFrameSize bounds a single length-delimited frame.
const DefaultMaxFrameSize = 1 << 20

// WriteDelimited writes f to w prefixed with its varint length.
func WriteDelimited(w io.Writer, f Frame) error {
	msg, err := f.ToProto()
	if err != nil {
		return err
	}
	if _, err := protodelim.MarshalTo(w, msg); err != nil {
		return fmt.Errorf("writing %s frame: %w", f.Type, err)
	}
	return nil
}

// ReadDelimited reads one varint length-prefixed frame from r.
//
// Precondition: maxSize must be > 0.
// Postcondition: Returns io.EOF unchanged when r ends cleanly between frames.
func ReadDelimited(r protodelim.Reader, maxSize int) (Frame, error) {
	msg := &structpb.Struct{}
	opts := protodelim.UnmarshalOptions{MaxSize: int64(maxSize)}
	if err := opts.UnmarshalFrom(r, msg); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("reading frame: %w", err)
	}
	return FromProto(msg)
}

// Marshal encodes f without a length prefix, for message-oriented transports.
func Marshal(f Frame) ([]byte, error) {
	msg, err := f.ToProto()
	if err != nil {
		return nil, err
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s frame: %w", f.Type, err)
	}
	return data, nil
}

// Unmarshal decodes a frame produced by Marshal.
func Unmarshal(data []byte) (Frame, error) {
	msg := &structpb.Struct{}
	if err := proto.Unmarshal(data, msg); err != nil {
		return Frame{}, fmt.Errorf("unmarshalling frame: %w", err)
	}
	return FromProto(msg)
}
