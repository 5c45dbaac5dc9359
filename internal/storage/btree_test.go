package storage

import (
	"errors"
	"testing"

	"github.com/cabewaldrop/claude-db/internal/errs"
	"github.com/cabewaldrop/claude-db/internal/types"
)

func intKeyProfile() types.KeyProfile {
	return types.KeyProfile{types.TypeInt}
}

func intKey(n int32) types.KeyValue {
	return types.KeyValue{types.NewInt(n)}
}

func TestBTreeInsertAndLookupSingle(t *testing.T) {
	dir := t.TempDir()
	tree, err := CreateBTree(dir, "idx", intKeyProfile())
	if err != nil {
		t.Fatalf("CreateBTree: %v", err)
	}
	defer tree.Close()

	want := Handle{Block: 5, Record: 2}
	if err := tree.Insert(intKey(12), want); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, found, err := tree.Lookup(intKey(12))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !found {
		t.Fatal("expected key 12 to be found")
	}
	if got != want {
		t.Errorf("Lookup(12) = %+v, want %+v", got, want)
	}

	if _, found, err := tree.Lookup(intKey(6)); err != nil {
		t.Fatalf("Lookup(6): %v", err)
	} else if found {
		t.Error("expected key 6 to be absent")
	}
}

func TestBTreeDuplicateKeyRejected(t *testing.T) {
	dir := t.TempDir()
	tree, err := CreateBTree(dir, "idx", intKeyProfile())
	if err != nil {
		t.Fatalf("CreateBTree: %v", err)
	}
	defer tree.Close()

	if err := tree.Insert(intKey(1), Handle{Block: 2, Record: 1}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	err = tree.Insert(intKey(1), Handle{Block: 3, Record: 1})
	var dup *errs.DuplicateKeyError
	if !errors.As(err, &dup) {
		t.Errorf("expected DuplicateKeyError, got %v", err)
	}
}

// TestBTreeManyInserts checks a B+Tree correctness scenario: a run of sequential and
// then densely packed keys must all remain findable after the splits and tree-growth
// they provoke.
func TestBTreeManyInserts(t *testing.T) {
	dir := t.TempDir()
	tree, err := CreateBTree(dir, "idx", intKeyProfile())
	if err != nil {
		t.Fatalf("CreateBTree: %v", err)
	}
	defer tree.Close()

	handleFor := func(a int32) Handle {
		return Handle{Block: BlockID(a + 1000), Record: RecordID(1)}
	}

	if err := tree.Insert(intKey(12), handleFor(12)); err != nil {
		t.Fatalf("Insert(12): %v", err)
	}
	if err := tree.Insert(intKey(88), handleFor(88)); err != nil {
		t.Fatalf("Insert(88): %v", err)
	}
	for i := int32(0); i < 50000; i++ {
		if err := tree.Insert(intKey(100+i), handleFor(100+i)); err != nil {
			t.Fatalf("Insert(%d): %v", 100+i, err)
		}
	}

	check := func(key int32, want Handle) {
		got, found, err := tree.Lookup(intKey(key))
		if err != nil {
			t.Fatalf("Lookup(%d): %v", key, err)
		}
		if !found {
			t.Fatalf("key %d not found", key)
		}
		if got != want {
			t.Errorf("Lookup(%d) = %+v, want %+v", key, got, want)
		}
	}
	check(12, handleFor(12))
	check(88, handleFor(88))
	if _, found, err := tree.Lookup(intKey(6)); err != nil {
		t.Fatalf("Lookup(6): %v", err)
	} else if found {
		t.Error("expected key 6 to be absent")
	}
	for i := int32(0); i <= 999; i++ {
		check(100+i, handleFor(100+i))
	}
}

func TestBTreeCloseAndReopen(t *testing.T) {
	dir := t.TempDir()
	profile := intKeyProfile()

	tree, err := CreateBTree(dir, "idx", profile)
	if err != nil {
		t.Fatalf("CreateBTree: %v", err)
	}
	for i := int32(0); i < 2000; i++ {
		if err := tree.Insert(intKey(i), Handle{Block: BlockID(i + 2), Record: 1}); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenBTree(dir, "idx", profile)
	if err != nil {
		t.Fatalf("OpenBTree: %v", err)
	}
	defer reopened.Close()

	for i := int32(0); i < 2000; i++ {
		got, found, err := reopened.Lookup(intKey(i))
		if err != nil {
			t.Fatalf("Lookup(%d): %v", i, err)
		}
		if !found {
			t.Fatalf("key %d missing after reopen", i)
		}
		if got.Block != BlockID(i+2) {
			t.Errorf("key %d: block = %d, want %d", i, got.Block, i+2)
		}
	}
}

func TestBTreeOperationsFailWhenClosed(t *testing.T) {
	dir := t.TempDir()
	tree, err := CreateBTree(dir, "idx", intKeyProfile())
	if err != nil {
		t.Fatalf("CreateBTree: %v", err)
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tree.Insert(intKey(1), Handle{Block: 2, Record: 1}); err == nil {
		t.Error("expected Insert on a closed index to fail")
	}
	if _, _, err := tree.Lookup(intKey(1)); err == nil {
		t.Error("expected Lookup on a closed index to fail")
	}
}

func TestBTreeRangeAndDeleteNotImplemented(t *testing.T) {
	dir := t.TempDir()
	tree, err := CreateBTree(dir, "idx", intKeyProfile())
	if err != nil {
		t.Fatalf("CreateBTree: %v", err)
	}
	defer tree.Close()

	if _, err := tree.Range(intKey(0), intKey(10)); !errs.IsNotImplemented(err) {
		t.Errorf("Range: expected NotImplemented, got %v", err)
	}
	if err := tree.Delete(intKey(0)); !errs.IsNotImplemented(err) {
		t.Errorf("Delete: expected NotImplemented, got %v", err)
	}
}
