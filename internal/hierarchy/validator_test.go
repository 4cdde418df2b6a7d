package hierarchy

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func chain(names ...string) []Node {
	nodes := make([]Node, len(names))
	var parent *uuid.UUID
	for i, name := range names {
		id := uuid.New()
		nodes[i] = Node{ID: id, Name: name, ParentID: parent}
		p := id
		parent = &p
	}
	return nodes
}

func TestValidateValidChain(t *testing.T) {
	for _, n := range []int{1, 2, 5, 12} {
		names := make([]string, n)
		for i := range names {
			names[i] = "level-" + string(rune('a'+i))
		}
		nodes := chain(names...)

		ordered, errs := Validate(nodes)
		if len(errs) != 0 {
			t.Fatalf("chain of %d: unexpected errors %v", n, errs)
		}
		if len(ordered) != n {
			t.Fatalf("chain of %d: got %d ordered nodes", n, len(ordered))
		}
		if ordered[0].Name != names[0] || ordered[n-1].Name != names[n-1] {
			t.Fatalf("chain of %d: wrong order %v", n, ordered)
		}
	}
}

func TestValidateDuplicates(t *testing.T) {
	nodes := chain("admin", "coordinator", "supervisor")
	nodes = append(nodes, Node{ID: nodes[1].ID, Name: "coordinator", ParentID: &nodes[0].ID})

	_, errs := Validate(nodes)
	if len(errs) != 2 {
		t.Fatalf("want duplicate id + duplicate name errors, got %v", errs)
	}
	joined := strings.Join(errs, "; ")
	if !strings.Contains(joined, "appears 2 times") {
		t.Fatalf("errors do not report occurrence counts: %v", errs)
	}
}

func TestValidateRootCount(t *testing.T) {
	t.Run("no_root", func(t *testing.T) {
		nodes := chain("a", "b")
		nodes[0].ParentID = &nodes[1].ID // 2-cycle, no root

		_, errs := Validate(nodes)
		if len(errs) != 1 || !strings.Contains(errs[0], "no top level node") {
			t.Fatalf("got %v", errs)
		}
	})

	t.Run("two_roots", func(t *testing.T) {
		nodes := append(chain("a", "b"), Node{ID: uuid.New(), Name: "c"})

		_, errs := Validate(nodes)
		if len(errs) != 1 || !strings.Contains(errs[0], "multiple top level nodes") {
			t.Fatalf("got %v", errs)
		}
		if !strings.Contains(errs[0], "a") || !strings.Contains(errs[0], "c") {
			t.Fatalf("root candidates not named: %v", errs)
		}
	})
}

func TestValidateCycle(t *testing.T) {
	// root chain plus a and b pointing at each other.
	nodes := chain("root", "x")
	a := Node{ID: uuid.New(), Name: "a"}
	b := Node{ID: uuid.New(), Name: "b", ParentID: &a.ID}
	a.ParentID = &b.ID
	nodes = append(nodes, a, b)

	_, errs := Validate(nodes)
	joined := strings.Join(errs, "; ")
	if !strings.Contains(joined, "cycle") {
		t.Fatalf("cycle not reported: %v", errs)
	}
	if !strings.Contains(joined, `"a"`) && !strings.Contains(joined, `"b"`) {
		t.Fatalf("cycle error does not name a member: %v", errs)
	}
	if !strings.Contains(joined, "not reachable") {
		t.Fatalf("unreached nodes not reported: %v", errs)
	}
	// one cycle, one report
	if strings.Count(joined, "cycle") != 1 {
		t.Fatalf("cycle reported more than once: %v", errs)
	}
}

func TestValidateSelfReference(t *testing.T) {
	nodes := chain("a", "b", "c")
	self := uuid.New()
	nodes = append(nodes, Node{ID: self, Name: "loner", ParentID: &self})

	_, errs := Validate(nodes)
	joined := strings.Join(errs, "; ")
	if !strings.Contains(joined, "its own parent") {
		t.Fatalf("self reference not flagged: %v", errs)
	}
	if !strings.Contains(joined, "not reachable") {
		t.Fatalf("unreached nodes not reported: %v", errs)
	}
}

func TestValidateDanglingParent(t *testing.T) {
	nodes := chain("a", "b")
	ghost := uuid.New()
	nodes = append(nodes, Node{ID: uuid.New(), Name: "orphan", ParentID: &ghost})

	_, errs := Validate(nodes)
	joined := strings.Join(errs, "; ")
	if !strings.Contains(joined, "parent that does not exist") {
		t.Fatalf("dangling parent not flagged: %v", errs)
	}
}

func TestValidateMultiChild(t *testing.T) {
	nodes := chain("a", "b")
	nodes = append(nodes, Node{ID: uuid.New(), Name: "c", ParentID: &nodes[0].ID})

	_, errs := Validate(nodes)
	joined := strings.Join(errs, "; ")
	if !strings.Contains(joined, "more than one child") {
		t.Fatalf("multi-child not flagged: %v", errs)
	}
}
