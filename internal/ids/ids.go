// Package ids generates the opaque identifiers used for rooms, players,
// hosts, and transport connections. Every identifier is produced with
// crypto/rand, the same rare-collision scheme the teacher uses for its
// per-player cookie values and its per-game room codes.
package ids

import (
	"crypto/rand"
	"encoding/hex"
)

// New returns a fresh opaque 32-character hex identifier, suitable for
// player IDs, host IDs, and connection IDs.
func New() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RoomCode generates a random 4-letter uppercase room code. Collision
// checking against existing codes is the caller's responsibility (the
// registry rejects and retries).
func RoomCode(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
	}
	return string(out)
}
