package ringbuffer

import (
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var layout = cmp.AllowUnexported(RingBuffer{}, slot{})

func filled(capacity int, rs ...Result) *RingBuffer {
	b := New(capacity)
	b.InsertAll(rs)
	return b
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name string
		buf  *RingBuffer
		want Encoded
	}{
		{
			name: "zero capacity",
			buf:  New(0),
			want: Encoded{},
		},
		{
			name: "empty capacity 5",
			buf:  New(5),
			want: Encoded{Head: 0, Tail: 0, Size: 0, Data: ",,,,"},
		},
		{
			name: "partially filled keeps trailing empty slots",
			buf:  filled(4, Result{1, true}, Result{2, false}),
			want: Encoded{Head: 0, Tail: 2, Size: 2, Data: "1;1,2;0,,"},
		},
		{
			name: "wrapped once",
			buf:  filled(2, Result{1, true}, Result{2, false}, Result{3, true}),
			want: Encoded{Head: 1, Tail: 1, Size: 2, Data: "3;1,2;0"},
		},
		{
			name: "capacity 3 after four builds",
			buf:  filled(3, Result{10, true}, Result{11, false}, Result{12, true}, Result{13, false}),
			want: Encoded{Head: 1, Tail: 1, Size: 3, Data: "13;0,11;0,12;1"},
		},
		{
			name: "single slot",
			buf:  filled(1, Result{7, false}, Result{8, true}),
			want: Encoded{Head: 0, Tail: 0, Size: 1, Data: "8;1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Serialize(tt.buf))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	var bufs []*RingBuffer
	// Zero capacity encodes like a single empty slot, see TestSerialize_ZeroCapacity.
	for capacity := 1; capacity <= 5; capacity++ {
		for n := 0; n <= capacity*2+1; n++ {
			b := New(capacity)
			for i := 0; i < n; i++ {
				b.Add(100+i, i%2 == 1)
			}
			bufs = append(bufs, b)
		}
	}

	for _, b := range bufs {
		enc := Serialize(b)
		t.Run(enc.Data+"/"+strconv.Itoa(enc.Size), func(t *testing.T) {
			got, err := Deserialize(enc)
			require.NoError(t, err)

			if diff := cmp.Diff(b, got, layout); diff != "" {
				t.Errorf("decoded layout mismatch (-want +got):\n%s", diff)
			}
			require.Equal(t, b.Snapshot(), got.Snapshot())
			require.Equal(t, enc, Serialize(got))

			// Both copies must keep evolving identically.
			b.Add(999, true)
			got.Add(999, true)
			require.Equal(t, Serialize(b), Serialize(got))
		})
	}
}

func TestSerialize_SingleEmptySlot(t *testing.T) {
	enc := Serialize(New(1))
	require.Equal(t, Encoded{}, enc)

	b, err := Deserialize(enc)
	require.NoError(t, err)
	require.Equal(t, 1, b.Capacity())
	require.Equal(t, 0, b.Len())

	// The decoded buffer keeps recording.
	b.Add(5, true)
	require.Equal(t, []Result{{5, true}}, b.Snapshot())
	require.Equal(t, Encoded{Head: 0, Tail: 0, Size: 1, Data: "5;1"}, Serialize(b))
}

func TestSerialize_ZeroCapacity(t *testing.T) {
	enc := Serialize(New(0))
	require.Equal(t, Encoded{}, enc)

	b, err := Deserialize(enc)
	require.NoError(t, err)
	require.Equal(t, 1, b.Capacity())
	require.Empty(t, b.Snapshot())
	require.Equal(t, enc, Serialize(b))
}

func TestDeserialize_TrustsState(t *testing.T) {
	// size and indices are not reconciled with the slots.
	b, err := Deserialize(Encoded{Head: 2, Tail: 0, Size: 5, Data: "1;1,,3;0"})
	require.NoError(t, err)

	require.Equal(t, 3, b.Capacity())
	require.Equal(t, 5, b.Len())
	require.Equal(t, Encoded{Head: 2, Tail: 0, Size: 5, Data: "1;1,,3;0"}, Serialize(b))
}

func TestDeserialize_EmptySlots(t *testing.T) {
	b, err := Deserialize(Encoded{Data: ",,,,"})
	require.NoError(t, err)
	require.Equal(t, 5, b.Capacity())
	require.Equal(t, 0, b.Len())
	require.False(t, b.IsEmptyCapacity())

	b, err = Deserialize(Encoded{})
	require.NoError(t, err)
	require.Equal(t, 1, b.Capacity())
	require.False(t, b.IsEmptyCapacity())
}

func TestDeserialize_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantSlot int
	}{
		{name: "no separator", data: "abc", wantSlot: 0},
		{name: "non numeric build", data: "1;1,x;0", wantSlot: 1},
		{name: "unknown flag", data: "1;2", wantSlot: 0},
		{name: "empty flag", data: ",,5;", wantSlot: 2},
		{name: "extra separator", data: "5;1;1", wantSlot: 0},
		{name: "whitespace", data: " 5;1", wantSlot: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Deserialize(Encoded{Data: tt.data})
			require.Nil(t, b)

			var fe *FormatError
			require.True(t, errors.As(err, &fe), "expected FormatError, got %v", err)
			require.Equal(t, "data", fe.Field)
			require.Equal(t, tt.wantSlot, fe.Slot)
		})
	}
}

func TestDeserializeFields(t *testing.T) {
	b, err := DeserializeFields("1", "1", "2", "3;1,2;0")
	require.NoError(t, err)
	require.Equal(t, []Result{{2, false}, {3, true}}, b.Snapshot())

	for _, field := range []string{"head", "tail", "size"} {
		t.Run(field, func(t *testing.T) {
			args := map[string]string{"head": "0", "tail": "0", "size": "0"}
			args[field] = "zero"

			_, err := DeserializeFields(args["head"], args["tail"], args["size"], ",")

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			require.Equal(t, field, fe.Field)
			require.Equal(t, -1, fe.Slot)
			require.ErrorIs(t, err, strconv.ErrSyntax)
		})
	}
}

func TestCodec_Strict(t *testing.T) {
	strict := Codec{Strict: true}

	tests := []struct {
		name    string
		enc     Encoded
		wantErr error
	}{
		{name: "valid", enc: Encoded{Head: 1, Tail: 1, Size: 2, Data: "3;1,2;0"}},
		{name: "single empty slot", enc: Encoded{}},
		{name: "size too large", enc: Encoded{Size: 3, Data: "1;1,"}, wantErr: ErrCapacityMismatch},
		{name: "negative size", enc: Encoded{Size: -1, Data: "1;1,"}, wantErr: ErrCapacityMismatch},
		{name: "head out of range", enc: Encoded{Head: 2, Size: 1, Data: "1;1,"}, wantErr: ErrIndexOutOfRange},
		{name: "tail negative", enc: Encoded{Tail: -1, Size: 1, Data: "1;1,"}, wantErr: ErrIndexOutOfRange},
		{name: "head past single slot", enc: Encoded{Head: 1}, wantErr: ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := strict.Deserialize(tt.enc)
			if tt.wantErr == nil {
				require.NoError(t, err)
				require.Equal(t, tt.enc, strict.Serialize(b))
				return
			}
			require.ErrorIs(t, err, tt.wantErr)

			// The default codec accepts the same input.
			_, err = Deserialize(tt.enc)
			require.NoError(t, err)
		})
	}
}

func TestFormatError_Message(t *testing.T) {
	_, err := Deserialize(Encoded{Data: "abc"})
	require.EqualError(t, err, `invalid data slot 0 "abc": missing separator`)

	_, err = DeserializeFields("x", "0", "0", "")
	require.EqualError(t, err, `invalid head "x": strconv.Atoi: parsing "x": invalid syntax`)
}
