package machine_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ember-lang/ember/lang/machine"
)

func internStr(h *machine.Heap, s string) *machine.ObjString {
	return h.InternCopy(s)
}

func TestTableSetGetDelete(t *testing.T) {
	h := machine.NewHeap()
	tbl := machine.NewTable()

	k := internStr(h, "answer")
	require.True(t, tbl.Set(k, machine.Number(42)))

	v, ok := tbl.Get(k)
	require.True(t, ok)
	require.Equal(t, machine.Number(42), v)

	require.True(t, tbl.Delete(k))
	_, ok = tbl.Get(k)
	require.False(t, ok)
}

func TestTableSetExistingKeyIsNotNew(t *testing.T) {
	h := machine.NewHeap()
	tbl := machine.NewTable()
	k := internStr(h, "x")

	require.True(t, tbl.Set(k, machine.Number(1)))
	require.False(t, tbl.Set(k, machine.Number(2)))

	v, _ := tbl.Get(k)
	require.Equal(t, machine.Number(2), v)
}

func TestTableGrowsAndSurvivesRehash(t *testing.T) {
	h := machine.NewHeap()
	tbl := machine.NewTable()

	keys := make([]*machine.ObjString, 0, 64)
	for i := 0; i < 64; i++ {
		k := internStr(h, fmt.Sprintf("key-%d", i))
		keys = append(keys, k)
		tbl.Set(k, machine.Number(float64(i)))
	}
	for i, k := range keys {
		v, ok := tbl.Get(k)
		require.True(t, ok)
		require.Equal(t, machine.Number(float64(i)), v)
	}
	require.Equal(t, 64, tbl.Count())
}

func TestTableTombstoneAllowsReuseAndDoesNotBreakProbing(t *testing.T) {
	h := machine.NewHeap()
	tbl := machine.NewTable()

	a := internStr(h, "a")
	b := internStr(h, "b")
	tbl.Set(a, machine.Number(1))
	tbl.Set(b, machine.Number(2))

	tbl.Delete(a)
	// b must still be reachable even though a's slot (possibly earlier in a's
	// probe chain) is now a tombstone.
	v, ok := tbl.Get(b)
	require.True(t, ok)
	require.Equal(t, machine.Number(2), v)

	// re-set a reuses the tombstone but should not change Count semantics
	// observably from the outside.
	require.True(t, tbl.Set(a, machine.Number(3)))
	v, ok = tbl.Get(a)
	require.True(t, ok)
	require.Equal(t, machine.Number(3), v)
}

func TestFindStringProbesByContent(t *testing.T) {
	h := machine.NewHeap()
	s := internStr(h, "hello")

	found := h.Strings().FindString("hello", s.Hash)
	require.Same(t, s, found)

	require.Nil(t, h.Strings().FindString("goodbye", machine.HashString("goodbye")))
}
