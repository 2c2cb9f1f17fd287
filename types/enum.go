package types

import (
	"fmt"
	"strconv"
)

// EnumEncoding selects how an enumeration travels on the wire.
type EnumEncoding int

const (
	EnumByName EnumEncoding = iota
	EnumByCode
	EnumByOrdinal
)

// EnumHandler encodes a closed set of values by name, by code or by their
// ordinal position in Values.
type EnumHandler[T comparable] struct {
	Encoding EnumEncoding
	Values   []T
	Name     func(T) string
	Code     func(T) int64
}

// NewEnumHandler builds an enum handler. Code may be nil unless encoding is EnumByCode.
func NewEnumHandler[T comparable](enc EnumEncoding, values []T, name func(T) string, code func(T) int64) *EnumHandler[T] {
	return &EnumHandler[T]{Encoding: enc, Values: values, Name: name, Code: code}
}

func (h *EnumHandler[T]) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	v, ok := value.(T)
	if !ok {
		return nil, fmt.Errorf("cannot encode %T as enum %T", value, *new(T))
	}

	switch h.Encoding {
	case EnumByName:
		return h.Name(v), nil
	case EnumByCode:
		if h.Code == nil {
			return nil, fmt.Errorf("enum %T has no code function", v)
		}
		return h.Code(v), nil
	case EnumByOrdinal:
		for i, candidate := range h.Values {
			if candidate == v {
				return int64(i), nil
			}
		}
		return nil, fmt.Errorf("value %v is not a member of enum %T", v, v)
	}
	return nil, fmt.Errorf("unknown enum encoding %d", h.Encoding)
}

func (h *EnumHandler[T]) Decode(src any) (any, error) {
	if src == nil {
		return nil, nil
	}

	switch h.Encoding {
	case EnumByName:
		name, err := asString(src)
		if err != nil {
			return nil, err
		}
		for _, v := range h.Values {
			if h.Name(v) == name {
				return v, nil
			}
		}
		return nil, fmt.Errorf("unknown enum name %q", name)
	case EnumByCode:
		code, err := asInt64(src)
		if err != nil {
			return nil, err
		}
		for _, v := range h.Values {
			if h.Code != nil && h.Code(v) == code {
				return v, nil
			}
		}
		return nil, fmt.Errorf("unknown enum code %s", strconv.FormatInt(code, 10))
	case EnumByOrdinal:
		ord, err := asInt64(src)
		if err != nil {
			return nil, err
		}
		if ord < 0 || int(ord) >= len(h.Values) {
			return nil, fmt.Errorf("enum ordinal %d out of range", ord)
		}
		return h.Values[ord], nil
	}
	return nil, fmt.Errorf("unknown enum encoding %d", h.Encoding)
}

func (h *EnumHandler[T]) SQLType() SQLType {
	if h.Encoding == EnumByName {
		return Varchar
	}
	return Integer
}
