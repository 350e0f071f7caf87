package xdvdfs

// cp1252Upper is a 256-entry uppercase fold table for Windows-1252, used
// for the case-insensitive ordering relation XDVDFS directory tables are
// built and searched under (spec §3). ASCII a-z folds to A-Z; the
// 0x80-0x9F and 0xE0-0xFE ranges follow the CP1252/Latin-1 extended
// mapping. Bytes with no defined uppercase counterpart fold to
// themselves.
var cp1252Upper = buildCP1252UpperTable()

func buildCP1252UpperTable() [256]byte {
	var t [256]byte
	for i := 0; i < 256; i++ {
		t[i] = byte(i)
	}
	for c := byte('a'); c <= 'z'; c++ {
		t[c] = c - ('a' - 'A')
	}
	// CP1252 extended range (0x80-0x9F) pairs not covered by Latin-1.
	pairs := map[byte]byte{
		0x9A: 0x8A, // š -> Š
		0x9C: 0x8C, // œ -> Œ
		0x9E: 0x8E, // ž -> Ž
		0xFF: 0x9F, // ÿ -> Ÿ (the only Latin-1 lowercase with no Latin-1 uppercase pair)
	}
	for lower, upper := range pairs {
		t[lower] = upper
	}
	// Latin-1 accented lowercase (0xE0-0xFE, excluding 0xF7 the division
	// sign which is not a letter) fold to their uppercase counterparts
	// 0x20 lower (0xC0-0xDE, excluding 0xD7 the multiplication sign).
	for c := 0xE0; c <= 0xFE; c++ {
		if c == 0xF7 {
			continue
		}
		t[c] = byte(c - 0x20)
	}
	return t
}

// foldByte returns the case-folded form of a single Windows-1252 byte.
func foldByte(b byte) byte {
	return cp1252Upper[b]
}

// compareFolded implements the ordering relation spec §3 requires:
// byte-by-byte comparison after case folding, with the shorter name
// winning when one is a strict prefix of the other. It returns a
// negative number, zero, or a positive number following the usual
// three-way-compare convention.
func compareFolded(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		fa, fb := foldByte(a[i]), foldByte(b[i])
		if fa != fb {
			return int(fa) - int(fb)
		}
	}
	return len(a) - len(b)
}

// equalFolded reports whether two names compare equal under the
// case-folding ordering relation.
func equalFolded(a, b []byte) bool {
	return compareFolded(a, b) == 0
}
