package machine

// ObjString is an immutable, interned byte sequence. Every ObjString that
// ever exists is reachable from exactly one entry in the owning Heap's
// intern table, so two strings with equal content are always the same
// *ObjString.
type ObjString struct {
	objHeader
	Chars string
	Hash  uint32
}

var (
	_ Value = (*ObjString)(nil)
	_ Obj   = (*ObjString)(nil)
)

func (s *ObjString) String() string { return s.Chars }
func (*ObjString) Type() string     { return "string" }

// fnv1a32 computes the 32-bit FNV-1a hash used for strings,
// used both as the ObjString.Hash field and as the probe hash in Table.
func fnv1a32(s string) uint32 {
	const (
		offsetBasis = 2166136261
		prime       = 16777619
	)
	h := uint32(offsetBasis)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}
