package utils

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// SixIDHookFunc is the signature of the NewSixID test hook. It returns an ID
// and whether the default random generation should be overridden.
type SixIDHookFunc func() (id SixID, override bool)

// NewSixIDHook can be set by tests to make NewSixID deterministic.
var NewSixIDHook SixIDHookFunc

// bsonBinarySubtypeSixID is the custom BSON binary subtype used to store SixIDs.
const bsonBinarySubtypeSixID = 0x80

// SixID is a 6-byte identifier stored as BSON BinData with subtype 0x80 and
// rendered as Crockford Base32 in JSON and URLs.
type SixID [6]byte

// NewSixID creates a new random SixID.
func NewSixID() SixID {
	if NewSixIDHook != nil {
		if id, override := NewSixIDHook(); override {
			return id
		}
	}

	var id SixID
	if _, err := rand.Read(id[:]); err != nil {
		// fallback to zeros if random fails
		for i := range id {
			id[i] = 0
		}
	}
	return id
}

// ParseSixID parses the Crockford Base32 string representation of a SixID.
// Only canonical encodings are accepted: each ID has exactly one valid string.
func ParseSixID(s string) (SixID, error) {
	return parseCrockfordSixID(s)
}

const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockfordDecodeMap map[byte]byte

func init() {
	crockfordDecodeMap = make(map[byte]byte, 32)
	for i := range crockfordAlphabet {
		crockfordDecodeMap[crockfordAlphabet[i]] = byte(i)
	}

	lower := strings.ToLower(crockfordAlphabet)
	for i := range lower {
		if i >= 10 { // skip digits
			crockfordDecodeMap[lower[i]] = byte(i)
		}
	}

	// Commonly confused characters.
	crockfordDecodeMap['o'] = crockfordDecodeMap['O']
	crockfordDecodeMap['i'] = crockfordDecodeMap['1']
	crockfordDecodeMap['l'] = crockfordDecodeMap['1']
}

// String returns the Crockford Base32 (uppercase) representation of the ID.
func (u SixID) String() string {
	// 6 bytes = 48 bits = 10 Base32 characters
	result := make([]byte, 10)
	var bits, offset uint
	resultIndex := 0

	for i := 0; i < 6; i++ {
		bits |= uint(u[i]) << offset
		offset += 8

		for offset >= 5 {
			result[resultIndex] = crockfordAlphabet[bits&0x1F]
			resultIndex++
			bits >>= 5
			offset -= 5
		}
	}

	if offset > 0 {
		result[resultIndex] = crockfordAlphabet[bits&0x1F]
		resultIndex++
	}

	return string(result[:resultIndex])
}

func parseCrockfordSixID(s string) (SixID, error) {
	// Hyphens and spaces are allowed for leniency.
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")

	if len(s) != 10 {
		return SixID{}, errors.New("invalid Crockford Base32 SixID: string length must be 10")
	}

	var bits uint64
	var offset uint
	bytes := make([]byte, 6)
	byteIndex := 0

	for i := 0; i < 10; i++ {
		val, ok := crockfordDecodeMap[s[i]]
		if !ok {
			return SixID{}, errors.New("invalid character in Crockford Base32 SixID")
		}

		bits |= uint64(val) << offset
		offset += 5

		for offset >= 8 && byteIndex < 6 {
			bytes[byteIndex] = byte(bits & 0xFF)
			byteIndex++
			bits >>= 8
			offset -= 8
		}
	}

	if byteIndex != 6 {
		return SixID{}, errors.New("invalid Crockford Base32 SixID: couldn't decode 6 bytes")
	}

	// 10 characters carry 50 bits but the ID only has 48. The final character
	// must leave its top two bits clear, otherwise distinct strings would
	// decode to the same ID.
	if bits != 0 {
		return SixID{}, errors.New("invalid Crockford Base32 SixID: non-canonical final character")
	}

	var id SixID
	copy(id[:], bytes)
	return id, nil
}

// MarshalBSONValue implements bson.ValueMarshaler, storing the ID as BinData
// with the custom subtype.
func (u SixID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.Binary, bsoncore.AppendBinary(nil, bsonBinarySubtypeSixID, u[:]), nil
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (u *SixID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null {
		*u = SixID{}
		return nil
	}
	if t != bsontype.Binary {
		return errors.New("invalid BSON type for SixID: expected binary")
	}
	subtype, bin, _, ok := bsoncore.ReadBinary(data)
	if !ok {
		return errors.New("invalid BSON binary data for SixID")
	}
	if subtype != bsonBinarySubtypeSixID || len(bin) != 6 {
		return errors.New("invalid BSON binary data for SixID: incorrect subtype or length")
	}
	copy((*u)[:], bin)
	return nil
}

// MarshalJSON marshals the SixID as its Crockford Base32 string.
func (u SixID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON unmarshals a SixID from its Crockford Base32 string.
func (u *SixID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSixID(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
