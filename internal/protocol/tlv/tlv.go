// Package tlv is the tagged binary codec for protocol values.
//
// Every value starts with one tag byte. The tag set is closed; any other byte
// in tag position is a decode error.
//
//	NULL     0x00
//	BOOL     0x01 u8 (0 or 1)
//	NUMBER   0x02 f64 (big-endian IEEE-754, finite)
//	STRING   0x03 u32 len | utf-8 bytes
//	SEQUENCE 0x04 u32 count | values
//	MAPPING  0x05 u32 count | (STRING key, value) pairs
package tlv

// Tag IDs from the wire contract.
const (
	TagNull     uint8 = 0x00
	TagBool     uint8 = 0x01
	TagNumber   uint8 = 0x02
	TagString   uint8 = 0x03
	TagSequence uint8 = 0x04
	TagMapping  uint8 = 0x05
)

const (
	lenPrefixSize = 4
	numberSize    = 8

	// smallest encodings, used to reject counts the input cannot hold
	minValueSize = 1
	minEntrySize = 1 + lenPrefixSize + minValueSize
)

// Limits constrains decode memory and recursion.
type Limits struct {
	MaxPayloadBytes int
	MaxDepth        int
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 1 << 20,
		MaxDepth:        32,
	}
}

func (l Limits) normalized() Limits {
	def := DefaultLimits()
	if l.MaxPayloadBytes <= 0 {
		l.MaxPayloadBytes = def.MaxPayloadBytes
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = def.MaxDepth
	}
	return l
}

// KnownTag reports whether t is part of the closed tag set.
func KnownTag(t uint8) bool {
	return t <= TagMapping
}
