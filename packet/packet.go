// Package packet implements the NSIGII wire format for messages that
// have passed through the trident pipeline. Packets cross language
// boundaries, so the encoding is msgpack rather than anything
// Go-specific.
package packet

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/obinexus/gonpl/parser"
)

const (
	// CodecVersion is the wire format version (major version of the
	// protocol this codec speaks).
	CodecVersion = 7

	// MaxContentSize bounds the payload content of a single packet.
	MaxContentSize = 8192

	// MaxTagSize bounds the verification rights tag.
	MaxTagSize = 64
)

// HashSize is the size of the payload content hash.
const HashSize = sha256.Size

// Header identifies the packet on the wire.
type Header struct {
	Channel  uint8  `msgpack:"c"`
	Sequence uint32 `msgpack:"s"`
	Version  uint8  `msgpack:"v"`
}

// Payload carries the message content and its hash.
type Payload struct {
	Hash    []byte `msgpack:"h"`
	Content []byte `msgpack:"b"`
}

// Verification carries the channel's rwx bits and the rights tag.
type Verification struct {
	Perm      uint8  `msgpack:"p"`
	RightsTag string `msgpack:"t"`
}

// Topology records where the packet sits on the channel wheel.
type Topology struct {
	Next  uint8  `msgpack:"n"`
	Prev  uint8  `msgpack:"r"`
	Wheel uint16 `msgpack:"w"`
}

// Packet is one delivered message in wire form.
type Packet struct {
	Header       Header       `msgpack:"hdr"`
	Payload      Payload      `msgpack:"pay"`
	Verification Verification `msgpack:"ver"`
	Topology     Topology     `msgpack:"top"`
}

// FromMessage builds a packet for a resolved message delivered to its
// destination channel. The message must come from a parsed program
// (From and To resolved), or FromMessage returns an error.
func FromMessage(m *parser.Message) (*Packet, error) {
	if m.From == nil || m.To == nil {
		return nil, errors.New("message channels not resolved")
	}
	if len(m.Payload) > MaxContentSize {
		return nil, fmt.Errorf("payload %d bytes exceeds max %d", len(m.Payload), MaxContentSize)
	}
	hash := sha256.Sum256([]byte(m.Payload))
	tag := m.ID
	if len(tag) > MaxTagSize {
		tag = tag[:MaxTagSize]
	}
	return &Packet{
		Header: Header{
			Channel:  uint8(m.To.Index),
			Sequence: uint32(m.Seq),
			Version:  CodecVersion,
		},
		Payload: Payload{
			Hash:    hash[:],
			Content: []byte(m.Payload),
		},
		Verification: Verification{
			Perm:      uint8(m.To.Perm),
			RightsTag: tag,
		},
		Topology: Topology{
			Next:  uint8(m.To.Next.Index),
			Prev:  uint8(m.To.Prev.Index),
			Wheel: uint16(m.To.Index),
		},
	}, nil
}

// Marshal encodes the packet, validating its bounds first.
func Marshal(p *Packet) ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return msgpack.Marshal(p)
}

// Unmarshal decodes a packet from wire bytes. It is total: any input
// produces either a packet that passes validation or an error, never
// a panic. Callers must treat the returned error as ordinary
// rejection of a malformed buffer.
func Unmarshal(data []byte) (*Packet, error) {
	var p Packet
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Packet) validate() error {
	if p.Header.Version != CodecVersion {
		return fmt.Errorf("unsupported codec version %d", p.Header.Version)
	}
	if len(p.Payload.Hash) != HashSize {
		return fmt.Errorf("hash is %d bytes, want %d", len(p.Payload.Hash), HashSize)
	}
	if len(p.Payload.Content) > MaxContentSize {
		return fmt.Errorf("content %d bytes exceeds max %d", len(p.Payload.Content), MaxContentSize)
	}
	if len(p.Verification.RightsTag) > MaxTagSize {
		return fmt.Errorf("rights tag %d bytes exceeds max %d", len(p.Verification.RightsTag), MaxTagSize)
	}
	sum := sha256.Sum256(p.Payload.Content)
	if !bytes.Equal(p.Payload.Hash, sum[:]) {
		return errors.New("content hash mismatch")
	}
	return nil
}
