package codec

import (
	"slices"

	"github.com/rotisserie/eris"
	"google.golang.org/protobuf/encoding/protowire"
)

// The envelope uses the protobuf wire format of
//
//	message Envelope { map<string, bytes> entries = 1; }
//
// so every entry is length-prefixed and a reader can skip fields it does not understand.
const (
	envelopeEntryField protowire.Number = 1
	entryKeyField      protowire.Number = 1
	entryValueField    protowire.Number = 2
)

// EncodeEnvelope encodes entries in ascending key order, so equal maps produce equal bytes.
func EncodeEnvelope(entries map[string][]byte) []byte {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var out []byte
	for _, key := range keys {
		var entry []byte
		entry = protowire.AppendTag(entry, entryKeyField, protowire.BytesType)
		entry = protowire.AppendString(entry, key)
		entry = protowire.AppendTag(entry, entryValueField, protowire.BytesType)
		entry = protowire.AppendBytes(entry, entries[key])

		out = protowire.AppendTag(out, envelopeEntryField, protowire.BytesType)
		out = protowire.AppendBytes(out, entry)
	}
	return out
}

// DecodeEnvelope decodes bytes produced by EncodeEnvelope. Unknown fields are skipped. A repeated
// key keeps the last value.
func DecodeEnvelope(bz []byte) (map[string][]byte, error) {
	entries := make(map[string][]byte)
	for len(bz) > 0 {
		num, typ, n := protowire.ConsumeTag(bz)
		if n < 0 {
			return nil, eris.Wrap(protowire.ParseError(n), "malformed envelope tag")
		}
		bz = bz[n:]

		if num != envelopeEntryField || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, bz)
			if n < 0 {
				return nil, eris.Wrapf(protowire.ParseError(n), "malformed envelope field %d", num)
			}
			bz = bz[n:]
			continue
		}

		raw, n := protowire.ConsumeBytes(bz)
		if n < 0 {
			return nil, eris.Wrap(protowire.ParseError(n), "malformed envelope entry")
		}
		bz = bz[n:]

		key, value, err := decodeEntry(raw)
		if err != nil {
			return nil, err
		}
		entries[key] = value
	}
	return entries, nil
}

func decodeEntry(bz []byte) (string, []byte, error) {
	var (
		key   string
		value []byte
	)
	for len(bz) > 0 {
		num, typ, n := protowire.ConsumeTag(bz)
		if n < 0 {
			return "", nil, eris.Wrap(protowire.ParseError(n), "malformed entry tag")
		}
		bz = bz[n:]

		switch {
		case num == entryKeyField && typ == protowire.BytesType:
			key, n = protowire.ConsumeString(bz)
		case num == entryValueField && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(bz)
			value = slices.Clone(raw)
		default:
			n = protowire.ConsumeFieldValue(num, typ, bz)
		}
		if n < 0 {
			return "", nil, eris.Wrapf(protowire.ParseError(n), "malformed entry field %d", num)
		}
		bz = bz[n:]
	}
	if value == nil {
		value = []byte{}
	}
	return key, value, nil
}
