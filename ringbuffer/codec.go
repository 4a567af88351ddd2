package ringbuffer

// This file contains the text codec that persists a RingBuffer's physical
// layout: head, tail, size and every slot in index order.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	slotSeparator  = ","
	fieldSeparator = ";"
	flagPassed     = "1"
	flagFailed     = "0"
)

var (
	// ErrCapacityMismatch is returned by a strict Codec when size exceeds
	// the number of encoded slots.
	ErrCapacityMismatch = errors.New("size exceeds capacity")
	// ErrIndexOutOfRange is returned by a strict Codec when head or tail
	// does not address a slot.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Encoded is the persisted form of a RingBuffer.
type Encoded struct {
	Head int    `json:"head"`
	Tail int    `json:"tail"`
	Size int    `json:"size"`
	Data string `json:"data"`
}

// FormatError reports a field that could not be decoded.
type FormatError struct {
	Field string // "head", "tail", "size" or "data"
	Slot  int    // slot index for data fields, -1 otherwise
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	var msg string
	if e.Slot >= 0 {
		msg = fmt.Sprintf("invalid %s slot %d %q", e.Field, e.Slot, e.Value)
	} else {
		msg = fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Codec converts RingBuffers to and from their Encoded form.
//
// The zero Codec trusts decoded head, tail and size verbatim, which keeps
// already persisted data loadable as-is. Strict additionally rejects size
// larger than the slot count and head/tail outside the slot range.
type Codec struct {
	Strict bool
}

// Serialize encodes b with the default Codec.
func Serialize(b *RingBuffer) Encoded {
	return Codec{}.Serialize(b)
}

// Deserialize decodes e with the default Codec.
func Deserialize(e Encoded) (*RingBuffer, error) {
	return Codec{}.Deserialize(e)
}

// DeserializeFields decodes the four persisted fields given as text, as
// they appear in a document that stores head, tail and size as strings.
func DeserializeFields(head, tail, size, data string) (*RingBuffer, error) {
	return Codec{}.DeserializeFields(head, tail, size, data)
}

// Serialize encodes the physical layout of b. Slots are written in index
// order, not logical order, so an untouched buffer re-encodes identically.
func (c Codec) Serialize(b *RingBuffer) Encoded {
	fields := make([]string, len(b.slots))
	for i, s := range b.slots {
		if !s.set {
			continue
		}
		flag := flagFailed
		if s.result.Passed {
			flag = flagPassed
		}
		fields[i] = strconv.Itoa(s.result.BuildNumber) + fieldSeparator + flag
	}

	return Encoded{
		Head: b.head,
		Tail: b.tail,
		Size: b.size,
		Data: strings.Join(fields, slotSeparator),
	}
}

// Deserialize rebuilds a RingBuffer from e. The capacity is the number of
// slots in e.Data, so an empty Data is one empty slot. A zero-capacity
// buffer encodes the same way and comes back with a single slot.
func (c Codec) Deserialize(e Encoded) (*RingBuffer, error) {
	slots, err := decodeSlots(e.Data)
	if err != nil {
		return nil, err
	}

	if c.Strict {
		if e.Size < 0 || e.Size > len(slots) {
			return nil, fmt.Errorf("size %d with %d slots: %w", e.Size, len(slots), ErrCapacityMismatch)
		}
		if err := checkIndex("head", e.Head, len(slots)); err != nil {
			return nil, err
		}
		if err := checkIndex("tail", e.Tail, len(slots)); err != nil {
			return nil, err
		}
	}

	return &RingBuffer{
		slots: slots,
		head:  e.Head,
		tail:  e.Tail,
		size:  e.Size,
	}, nil
}

// DeserializeFields parses head, tail and size as decimal integers and
// decodes the result.
func (c Codec) DeserializeFields(head, tail, size, data string) (*RingBuffer, error) {
	e := Encoded{Data: data}
	for _, f := range []struct {
		name  string
		value string
		dst   *int
	}{
		{"head", head, &e.Head},
		{"tail", tail, &e.Tail},
		{"size", size, &e.Size},
	} {
		n, err := strconv.Atoi(strings.TrimSpace(f.value))
		if err != nil {
			return nil, &FormatError{Field: f.name, Slot: -1, Value: f.value, Err: err}
		}
		*f.dst = n
	}
	return c.Deserialize(e)
}

func decodeSlots(data string) ([]slot, error) {
	// strings.Split keeps empty fields, so ",," is three empty slots and
	// "" is one.
	fields := strings.Split(data, slotSeparator)
	slots := make([]slot, len(fields))
	for i, field := range fields {
		if field == "" {
			continue
		}

		number, flag, ok := strings.Cut(field, fieldSeparator)
		if !ok {
			return nil, &FormatError{Field: "data", Slot: i, Value: field, Err: errors.New("missing separator")}
		}
		buildNumber, err := strconv.Atoi(number)
		if err != nil {
			return nil, &FormatError{Field: "data", Slot: i, Value: field, Err: err}
		}

		var passed bool
		switch flag {
		case flagPassed:
			passed = true
		case flagFailed:
		default:
			return nil, &FormatError{Field: "data", Slot: i, Value: field, Err: fmt.Errorf("unknown flag %q", flag)}
		}

		slots[i] = slot{result: Result{BuildNumber: buildNumber, Passed: passed}, set: true}
	}
	return slots, nil
}

func checkIndex(name string, i, capacity int) error {
	if i < 0 || i >= capacity {
		return fmt.Errorf("%s %d with %d slots: %w", name, i, capacity, ErrIndexOutOfRange)
	}
	return nil
}
