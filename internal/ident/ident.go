package ident

import (
	"crypto/rand"
	"math/big"
)

const (
	roomCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // No 0/O or 1/I lookalikes
	RoomIDLen   = 6
)

// Avatars is the pool PickAvatar draws from when a player brings none.
var Avatars = []string{
	"🦊", "🐼", "🐸", "🐙", "🦉", "🐢", "🦄", "🐝",
	"🐳", "🦁", "🐧", "🦋", "🐨", "🐯", "🦕", "🐞",
}

func NewRoomID() (string, error) {
	code := make([]byte, RoomIDLen)
	for i := range code {
		n, err := randIndex(len(roomCharset))
		if err != nil {
			return "", err
		}
		code[i] = roomCharset[n]
	}
	return string(code), nil
}

// PickAvatar keeps a non-empty preference and otherwise draws one at random.
func PickAvatar(pref string) string {
	if pref != "" {
		return pref
	}
	n, err := randIndex(len(Avatars))
	if err != nil {
		return Avatars[0]
	}
	return Avatars[n]
}

func randIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
