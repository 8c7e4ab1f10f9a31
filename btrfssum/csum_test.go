package btrfssum_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/btrfsforensic/core/btrfssum"
)

func TestCRC32CVector(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	sum, err := btrfssum.TypeCRC32.Sum(data)
	require.NoError(t, err)
	require.Equal(t, []byte{0xf9, 0xb9, 0x14, 0x5a}, sum[:4])
	for _, b := range sum[4:] {
		require.Zero(t, b)
	}
}

func TestSizes(t *testing.T) {
	require.Equal(t, 4, btrfssum.TypeCRC32.Size())
	require.Equal(t, 8, btrfssum.TypeXXHash.Size())
	require.Equal(t, 32, btrfssum.TypeSHA256.Size())
	require.Equal(t, 32, btrfssum.TypeBlake2.Size())
}

func TestUnknownType(t *testing.T) {
	_, err := btrfssum.CSumType(99).Sum([]byte("x"))
	require.Error(t, err)
}

func TestTextRoundTrip(t *testing.T) {
	sum, err := btrfssum.TypeCRC32.Sum([]byte("hello"))
	require.NoError(t, err)

	text, err := sum.MarshalText()
	require.NoError(t, err)

	var got btrfssum.CSum
	require.NoError(t, got.UnmarshalText(text))
	require.Equal(t, sum, got)
}
