package memory

import "github.com/web3events/server/internal/domain/ids"

func newID() string {
	id, err := ids.NewULID()
	if err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	return id
}
