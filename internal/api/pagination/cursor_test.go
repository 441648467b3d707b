package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor(t *testing.T) {
	timestamp := time.Date(2024, 9, 5, 9, 0, 0, 0, time.UTC)

	cursor := Encode(timestamp, "  01hyx3kqw7ertv9xnbm2p8qjzf ")

	decoded, err := Decode(cursor)

	require.NoError(t, err)
	require.Equal(t, timestamp, decoded.Timestamp)
	require.Equal(t, "01HYX3KQW7ERTV9XNBM2P8QJZF", decoded.ID)
}

func TestDecodeCursorErrors(t *testing.T) {
	_, err := Decode("")

	require.ErrorIs(t, err, ErrInvalidCursor)

	_, err = Decode("not-base64!")

	require.ErrorIs(t, err, ErrInvalidCursor)

	_, err = Decode("bm90LWFfdmFsaWRfZm9ybWF0")

	require.ErrorIs(t, err, ErrInvalidCursor)
}
