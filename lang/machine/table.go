package machine

// Table is an open-addressed hash table used for
// globals, instance fields, class method tables, and the heap's string
// intern set. Capacity is always a power of two so `hash & (capacity-1)`
// replaces an expensive modulo with a mask. Keys are always interned
// Strings, so every lookup except the intern set's own findString can use
// pointer identity instead of content comparison.
type Table struct {
	count   int // live entries, including tombstones
	entries []entry
}

type entry struct {
	Key   *ObjString
	Value Value // nil slot: Value == nil; tombstone: Value == tombstoneMarker
}

// tombstoneMarker occupies Value in a deleted entry (Key == nil, Value ==
// tombstoneMarker) so that probes don't stop early at what used to be a
// filled bucket.
var tombstoneMarker Value = Bool(true)

const tableMaxLoad = 0.75

// NewTable returns an empty table. Its backing array is allocated lazily on
// first Set, so the zero value is never used uninitialized.
func NewTable() *Table { return &Table{} }

func (t *Table) Count() int { return t.count }

// Get returns the value stored for key, or (nil, false) if key is absent.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return nil, false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return nil, false
	}
	return e.Value, true
}

// Set stores value for key, growing the table if the load factor would
// exceed tableMaxLoad. It returns true iff this created a new entry (i.e.
// key was not already present).
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow(growCapacity(len(t.entries)))
	}

	e := findEntry(t.entries, key)
	isNew := e.Key == nil
	if isNew && e.Value == nil {
		// only a truly empty slot increments count; reusing a tombstone does not
		t.count++
	}
	e.Key = key
	e.Value = value
	return isNew
}

// Delete removes key, planting a tombstone so later probes for other keys
// that hashed into the same run keep working. Returns true iff key was
// present.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = tombstoneMarker
	return true
}

// AddAllTo copies every live entry of t into dst, used by OP_INHERIT to
// seed a subclass's method table from its superclass's.
func (t *Table) AddAllTo(dst *Table) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil {
			dst.Set(e.Key, e.Value)
		}
	}
}

// FindString probes the table by content equality (length, hash, then
// bytes) instead of pointer identity. It is used only by the heap's intern
// set, which by definition cannot yet hold a pointer to the *ObjString
// being looked up — that's exactly what it's trying to find or avoid
// reallocating.
func (t *Table) FindString(s string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		e := &t.entries[idx]
		switch {
		case e.Key == nil:
			if e.Value == nil {
				// truly empty slot: not interned
				return nil
			}
		case e.Key.Hash == hash && e.Key.Chars == s:
			return e.Key
		}
		idx = (idx + 1) & mask
	}
}

// DeleteUnmarkedKeys removes every entry whose key String is unmarked. It
// is called on the intern table between the GC's mark and sweep phases so
// that strings with no other reachable reference can actually be freed —
// the intern table otherwise holds what is, conceptually, a weak
// reference to every interned string.
func (t *Table) DeleteUnmarkedKeys() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil && !e.Key.marked {
			e.Key = nil
			e.Value = tombstoneMarker
		}
	}
}

// Each calls fn for every live entry, in bucket order (which depends on the
// keys' hashes, not on insertion order). The GC uses it to mark class
// method tables and instance field tables, and the VM's root-marking pass
// uses it for globals.
func (t *Table) Each(fn func(key *ObjString, value Value)) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil {
			fn(e.Key, e.Value)
		}
	}
}

func findEntry(entries []entry, key *ObjString) *entry {
	mask := uint32(len(entries) - 1)
	idx := key.Hash & mask
	var tombstone *entry
	for {
		e := &entries[idx]
		switch {
		case e.Key == nil:
			if e.Value == nil {
				// truly empty: return the first tombstone seen, if any, so
				// insertions reuse it instead of growing the probe chain further
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.Key == key:
			return e
		}
		idx = (idx + 1) & mask
	}
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}

func (t *Table) grow(capacity int) {
	newEntries := make([]entry, capacity)
	newCount := 0
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key == nil {
			continue
		}
		dst := findEntry(newEntries, e.Key)
		dst.Key = e.Key
		dst.Value = e.Value
		newCount++
	}
	t.entries = newEntries
	t.count = newCount
}
