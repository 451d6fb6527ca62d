package hashtable

import (
	"fmt"
	"testing"
)

type strKey string

func (s strKey) HashKey() uint64 {
	var h uint64
	for i := 0; i < len(s); i++ {
		h = h*31 + uint64(s[i])
	}
	return h
}

func (s strKey) EqualKey(other Key) bool {
	o, ok := other.(strKey)
	return ok && o == s
}

func TestSetGetInsertionOrder(t *testing.T) {
	tbl := New[int]()
	tbl.Set(strKey("a"), 1)
	tbl.Set(strKey("b"), 2)
	tbl.Set(strKey("a"), 3)

	v, ok := tbl.Get(strKey("a"))
	if !ok || v != 3 {
		t.Fatalf("get a = %v,%v want 3,true", v, ok)
	}

	got := tbl.Keys()
	if len(got) != 2 || got[0] != strKey("a") || got[1] != strKey("b") {
		t.Fatalf("insertion order = %v, want [a b]", got)
	}
}

func TestSetReturnsWhetherNew(t *testing.T) {
	tbl := New[int]()
	if !tbl.Set(strKey("x"), 1) {
		t.Fatalf("first Set should report a new key")
	}
	if tbl.Set(strKey("x"), 2) {
		t.Fatalf("overwrite should not report a new key")
	}
}

func TestDeleteThenReinsertGoesToEnd(t *testing.T) {
	tbl := New[int]()
	tbl.Set(strKey("a"), 1)
	tbl.Set(strKey("b"), 2)
	tbl.Set(strKey("c"), 3)

	if _, ok := tbl.Delete(strKey("a")); !ok {
		t.Fatalf("delete a should report present")
	}
	if _, ok := tbl.Get(strKey("a")); ok {
		t.Fatalf("a should be gone after delete")
	}

	tbl.Set(strKey("a"), 4)
	got := tbl.Keys()
	want := []Key{strKey("b"), strKey("c"), strKey("a")}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

func TestGrowthPreservesAllEntries(t *testing.T) {
	tbl := New[int]()
	const n = 200
	key := func(i int) strKey { return strKey(fmt.Sprintf("key-%d", i)) }
	for i := 0; i < n; i++ {
		tbl.Set(key(i), i)
	}
	if tbl.Len() != n {
		t.Fatalf("len = %d, want %d", tbl.Len(), n)
	}
	for i := 0; i < n; i++ {
		v, ok := tbl.Get(key(i))
		if !ok || v != i {
			t.Fatalf("get %v = %v,%v want %d,true", key(i), v, ok, i)
		}
	}
}

func TestFindByHash(t *testing.T) {
	tbl := New[string]()
	tbl.Set(strKey("hello"), "world")

	hash := strKey("hello").HashKey()
	key, val, ok := tbl.FindByHash(hash, func(k Key) bool {
		return k.(strKey) == "hello"
	})
	if !ok || key != strKey("hello") || val != "world" {
		t.Fatalf("FindByHash = %v,%v,%v", key, val, ok)
	}

	_, _, ok = tbl.FindByHash(hash, func(k Key) bool { return k.(strKey) == "nope" })
	if ok {
		t.Fatalf("FindByHash matched wrong content")
	}
}

func TestDeleteMissingKey(t *testing.T) {
	tbl := New[int]()
	tbl.Set(strKey("a"), 1)
	if _, ok := tbl.Delete(strKey("missing")); ok {
		t.Fatalf("delete of missing key should report absent")
	}
}
