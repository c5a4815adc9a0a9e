package models

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
)

// DecodeToken builds the value that starts with tok, reading the rest of it
// from decoder. The decoder should have UseNumber set so numbers keep their
// literal text. Running out of input inside a container is reported as
// io.ErrUnexpectedEOF. A repeated object key keeps the position of its first
// occurrence and the value of its last.
func DecodeToken(decoder *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(decoder)
		case '[':
			return decodeArray(decoder)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", t)
	}
}

// UnmarshalJSON decodes data with object members in document order. JSON
// null decodes to Null.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	tok, err := decoder.Token()
	if err != nil {
		return err
	}
	val, err := DecodeToken(decoder, tok)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// nextToken reads a token inside a container, where running out of input is
// always a truncation.
func nextToken(decoder *json.Decoder) (json.Token, error) {
	tok, err := decoder.Token()
	if stderrors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	return tok, err
}

func decodeValue(decoder *json.Decoder) (Value, error) {
	tok, err := nextToken(decoder)
	if err != nil {
		return Value{}, err
	}
	return DecodeToken(decoder, tok)
}

func decodeObject(decoder *json.Decoder) (Value, error) {
	members := make([]Member, 0)
	index := make(map[string]int)

	for decoder.More() {
		tok, err := nextToken(decoder)
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key must be a string, got %v", tok)
		}

		val, err := decodeValue(decoder)
		if err != nil {
			return Value{}, err
		}

		if i, seen := index[key]; seen {
			members[i].Value = val
			continue
		}
		index[key] = len(members)
		members = append(members, Member{Key: key, Value: val})
	}

	if _, err := nextToken(decoder); err != nil { // closing '}'
		return Value{}, err
	}
	return Object(members...), nil
}

func decodeArray(decoder *json.Decoder) (Value, error) {
	items := make([]Value, 0)
	for decoder.More() {
		val, err := decodeValue(decoder)
		if err != nil {
			return Value{}, err
		}
		items = append(items, val)
	}

	if _, err := nextToken(decoder); err != nil { // closing ']'
		return Value{}, err
	}
	return Array(items...), nil
}
