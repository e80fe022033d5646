// Package drawhash fixes the public fairness-proof formats: the canonical
// serialization of a snapshot's entry set, the digest bound over a draw's
// inputs, and the seed-to-winner-index derivation. These byte formats are
// load-bearing: any party holding the published inputs must be able to
// reproduce the stored hashes exactly, so nothing here may change shape
// without versioning the proof.
//
// Formats:
//
//	entry hash        = hex(sha256("n1\nn2\n...\nnk")) with ticket numbers in
//	                    ascending order, decimal ASCII, LF-joined, no
//	                    trailing newline. The empty set hashes empty input.
//	verification hash = hex(sha256(entryHashHex + ":" + seedHex + ":" + decimal(winnerIndex)))
//	winner index      = bigEndianUint(sha256(seedBytes)) mod totalEntries
package drawhash

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// ErrNoEntries is returned when a winner index is requested over an empty set.
var ErrNoEntries = errors.New("drawhash: entry set is empty")

// CanonicalEntryBytes serializes ticket numbers into the canonical byte form
// the entry hash commits to. The input is sorted ascending; the caller's
// slice is not modified.
func CanonicalEntryBytes(ticketNumbers []int) []byte {
	ordered := make([]int, len(ticketNumbers))
	copy(ordered, ticketNumbers)
	sort.Ints(ordered)

	var b strings.Builder
	for i, n := range ordered {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return []byte(b.String())
}

// EntryHash computes the hex-encoded sha256 of the canonical entry
// serialization. This is the "commitment" half of the commit-then-reveal
// protocol: it is published before any seed exists.
func EntryHash(ticketNumbers []int) string {
	sum := sha256.Sum256(CanonicalEntryBytes(ticketNumbers))
	return hex.EncodeToString(sum[:])
}

// WinnerIndex derives the winning index from a seed: the sha256 of the raw
// seed bytes, read as a big-endian unsigned integer, reduced modulo
// totalEntries. The hash step makes the derivation uniform regardless of
// seed length or source.
func WinnerIndex(seed []byte, totalEntries int) (int, error) {
	if totalEntries <= 0 {
		return 0, ErrNoEntries
	}
	sum := sha256.Sum256(seed)
	n := new(big.Int).SetBytes(sum[:])
	n.Mod(n, big.NewInt(int64(totalEntries)))
	return int(n.Int64()), nil
}

// VerificationHash binds a draw's three public inputs. seedHex must be the
// lowercase hex encoding of the raw seed as stored on the Draw record.
func VerificationHash(entryHashHex, seedHex string, winnerIndex int) string {
	payload := entryHashHex + ":" + seedHex + ":" + strconv.Itoa(winnerIndex)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
