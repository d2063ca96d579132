package nodemap

import (
	"errors"
	"fmt"
	"testing"

	"meshsend/node"
)

func TestResolve(t *testing.T) {
	nm := FromConfig(map[string]string{
		"Alice":    "!deadbeef",
		" base ":   "305419896",
		"everyone": "^all",
	})

	tests := []struct {
		in   string
		want string
	}{
		{"alice", "!deadbeef"},
		{"ALICE", "!deadbeef"},
		{"base", "305419896"},
		{"everyone", "^all"},
		{"!12345678", "!12345678"},
		{"bob", "bob"},
	}
	for _, tt := range tests {
		if got := nm.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUpdateParsesID(t *testing.T) {
	nm := New()
	nm.Update("alice", "!deadbeef")
	nm.Update("broken", "!xyz")
	nm.Update("  ", "!00000001")

	e, ok := nm.Lookup("alice")
	if !ok {
		t.Fatal("alice not found")
	}
	if e.Err != nil || e.Addr != 0xdeadbeef {
		t.Errorf("alice = %+v", e)
	}

	e, ok = nm.Lookup("broken")
	if !ok {
		t.Fatal("broken not found")
	}
	if !errors.Is(e.Err, node.ErrInvalidAddress) {
		t.Errorf("broken.Err = %v, want ErrInvalidAddress", e.Err)
	}

	if nm.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (blank names ignored)", nm.Len())
	}
}

func TestListSorted(t *testing.T) {
	nm := FromConfig(map[string]string{
		"carol": "!00000003",
		"alice": "!00000001",
		"bob":   "!00000002",
	})

	got := nm.List()
	if len(got) != 3 {
		t.Fatalf("List() returned %d nodes, want 3", len(got))
	}
	for i, want := range []string{"alice", "bob", "carol"} {
		if got[i].Name != want {
			t.Errorf("List()[%d].Name = %q, want %q", i, got[i].Name, want)
		}
		if got[i].Addr != node.Address(i+1) {
			t.Errorf("List()[%d].Addr = %v, want %d", i, got[i].Addr, i+1)
		}
	}
}

func ExampleMap_Resolve() {
	nm := FromConfig(map[string]string{"Alice": "!0000abcd"})
	fmt.Println(nm.Resolve("alice"))
	fmt.Println(nm.Resolve("!12345678"))
	// Output:
	// !0000abcd
	// !12345678
}
