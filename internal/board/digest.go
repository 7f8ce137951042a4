package board

import "github.com/cespare/xxhash/v2"

// digestSize is 64 piece bytes plus side to move, castling rights and
// the en passant square.
const digestSize = 67

// Digest returns a 64-bit content digest of the position. Two boards with
// equal pieces, side to move, castling rights and en passant square share
// a digest; the move clocks are not part of it.
func (b *Board) Digest() uint64 {
	var buf [digestSize]byte
	for sq, p := range b.squares {
		buf[sq] = byte(p)
	}
	buf[64] = byte(b.SideToMove)
	buf[65] = byte(b.CastlingRights)
	buf[66] = byte(b.EnPassant)
	return xxhash.Sum64(buf[:])
}

// PawnDigest hashes the pawn placement only.
func (b *Board) PawnDigest() uint64 {
	var buf [64]byte
	for sq, p := range b.squares {
		if p.Type() == Pawn {
			buf[sq] = byte(p)
		}
	}
	return xxhash.Sum64(buf[:])
}
