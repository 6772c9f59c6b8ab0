package resp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt64(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    int64
		wantErr error
	}{
		{"zero", "0", 0, nil},
		{"positive", "12345", 12345, nil},
		{"negative", "-42", -42, nil},
		{"max", "9223372036854775807", 9223372036854775807, nil},
		{"min", "-9223372036854775808", -9223372036854775808, nil},
		{"empty", "", 0, ErrEmpty},
		{"bare minus", "-", 0, ErrSyntax},
		{"non digit", "12a", 0, ErrSyntax},
		{"leading space", " 1", 0, ErrSyntax},
		{"overflow", "9223372036854775808", 0, ErrOverflow},
		{"negative overflow", "-9223372036854775809", 0, ErrOverflow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseInt64([]byte(tc.in))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseInt32Overflow(t *testing.T) {
	_, err := ParseInt32([]byte("2147483648"))
	require.ErrorIs(t, err, ErrOverflow)

	v, err := ParseInt32([]byte("2147483647"))
	require.NoError(t, err)
	assert.Equal(t, int32(2147483647), v)
}

func TestParseUint64(t *testing.T) {
	v, err := ParseUint64([]byte("18446744073709551615"))
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), v)

	_, err = ParseUint64([]byte("-1"))
	require.ErrorIs(t, err, ErrSyntax)
}

func TestParseSize(t *testing.T) {
	v, err := ParseSize([]byte("1024"))
	require.NoError(t, err)
	assert.Equal(t, 1024, v)

	_, err = ParseSize([]byte(""))
	require.ErrorIs(t, err, ErrEmpty)
}
