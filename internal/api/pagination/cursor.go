package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor encodes a timestamp + ULID keyset position. Event listings order by
// (start_date, id); bookmark listings order by (created_at, id). Both reuse
// this opaque continuation token so pages stay stable under concurrent writes.
type Cursor struct {
	Timestamp time.Time
	ID        string
}

// Encode encodes the cursor as base64(ts_unix_nano:ULID).
func Encode(timestamp time.Time, id string) string {
	value := fmt.Sprintf("%d:%s", timestamp.UTC().UnixNano(), strings.ToUpper(strings.TrimSpace(id)))
	return base64.RawURLEncoding.EncodeToString([]byte(value))
}

// Decode decodes base64(ts_unix_nano:ULID) into a Cursor.
func Decode(cursor string) (Cursor, error) {
	cursor = strings.TrimSpace(cursor)
	if cursor == "" {
		return Cursor{}, ErrInvalidCursor
	}
	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return Cursor{}, ErrInvalidCursor
	}
	unixNano, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	if strings.TrimSpace(parts[1]) == "" {
		return Cursor{}, ErrInvalidCursor
	}
	return Cursor{Timestamp: time.Unix(0, unixNano).UTC(), ID: strings.ToUpper(strings.TrimSpace(parts[1]))}, nil
}
