package models

import (
	"math/rand"
	"strconv"
	"time"
)

// id source range, open interval. 1e16 in base36 is 7 chars, 1e17 is 8,
// so generated ids stay within a fixed length band.
const (
	idMin int64 = 1e16
	idMax int64 = 1e17
)

// RandomID returns a lowercase base-36 id drawn from (idMin, idMax).
// Both boundaries are excluded to avoid the degenerate shortest and
// longest encodings. Collisions are possible but rare; they surface as a
// uniqueness violation from the store and are not retried here.
func RandomID() string {
	n := rand.Int63n(idMax-idMin) + idMin
	for n == idMin || n == idMax {
		n = rand.Int63n(idMax-idMin) + idMin
	}
	return strconv.FormatInt(n, 36)
}

// TimePrefixedID returns a creation-epoch prefix plus a random tail.
// Used for entities that want harder-to-guess ids which still sort by
// creation time (messages, auth codes).
func TimePrefixedID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + RandomID()
}
