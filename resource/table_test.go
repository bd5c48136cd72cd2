package resource

import (
	"sync"
	"testing"

	"github.com/wippyai/wasm-bridge/value"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnHandleEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h := table.Insert(value.String("test"))
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	v, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if s, _ := v.Str(); s != "test" {
		t.Fatalf("Expected 'test', got %v", v.Raw())
	}

	if !table.Release(h) {
		t.Fatal("Release failed")
	}
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Release")
	}
	if _, ok := table.Get(h); ok {
		t.Fatal("Get after drop should fail")
	}
}

func TestTable_HandleZero(t *testing.T) {
	table := NewTable()

	if h := table.Insert(value.Undefined); h != 0 {
		t.Fatalf("undefined should map to handle 0, got %d", h)
	}
	v, ok := table.Get(0)
	if !ok || !v.IsUndefined() {
		t.Fatal("handle 0 should read as undefined")
	}
	if table.Release(0) {
		t.Fatal("releasing handle 0 should report false")
	}
	if table.Len() != 0 {
		t.Fatal("nothing should be stored")
	}
}

func TestTable_IdentityDedup(t *testing.T) {
	table := NewTable()
	obj := value.NewObject()

	h1 := table.Insert(value.Of(obj))
	h2 := table.Insert(value.Of(obj))
	if h1 != h2 {
		t.Fatalf("same object should share a handle: %d != %d", h1, h2)
	}
	if refs, _ := table.Refs(h1); refs != 2 {
		t.Fatalf("refs = %d, want 2", refs)
	}

	// primitives are not deduplicated
	s1 := table.Insert(value.String("x"))
	s2 := table.Insert(value.String("x"))
	if s1 == s2 {
		t.Fatal("strings should get separate handles")
	}

	table.Release(h1)
	if _, ok := table.Get(h1); !ok {
		t.Fatal("one reference should remain")
	}
	table.Release(h1)
	if _, ok := table.Get(h1); ok {
		t.Fatal("entry should be dropped")
	}

	// after the drop the object gets a fresh entry
	h3 := table.Insert(value.Of(obj))
	if refs, _ := table.Refs(h3); refs != 1 {
		t.Fatalf("refs = %d, want 1", refs)
	}
}

func TestTable_RetainRelease(t *testing.T) {
	table := NewTable()
	h := table.Insert(value.Number(1))

	if !table.Retain(h) {
		t.Fatal("Retain failed")
	}
	table.Release(h)
	if _, ok := table.Get(h); !ok {
		t.Fatal("retained handle dropped too early")
	}
	table.Release(h)
	if table.Release(h) {
		t.Fatal("double release should report false")
	}
	if table.Retain(h) {
		t.Fatal("retain of a dropped handle should fail")
	}
}

func TestTable_Take(t *testing.T) {
	table := NewTable()
	h := table.Insert(value.String("result"))

	v := table.Take(h)
	if s, _ := v.Str(); s != "result" {
		t.Fatalf("Take = %v", v.Raw())
	}
	if table.Len() != 0 {
		t.Fatal("Take should release")
	}
}

func TestTable_Pin(t *testing.T) {
	table := NewTable()
	h := table.Pin(value.String("interned"))

	table.Release(h)
	table.Release(h)
	if _, ok := table.Get(h); !ok {
		t.Fatal("pinned handle must survive release")
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	unsubscribe := table.Subscribe(obs)

	obj := value.NewArray()
	h := table.Insert(value.Of(obj))
	table.Insert(value.Of(obj))
	table.Release(h)
	table.Release(h)

	want := []EventType{EventCreated, EventRetained, EventDropped}
	if len(obs.events) != len(want) {
		t.Fatalf("got %d events, want %d", len(obs.events), len(want))
	}
	for i, typ := range want {
		if obs.events[i].Type != typ {
			t.Errorf("event %d = %v, want %v", i, obs.events[i].Type, typ)
		}
		if obs.events[i].Handle != h {
			t.Errorf("event %d handle = %d, want %d", i, obs.events[i].Handle, h)
		}
	}

	unsubscribe()
	table.Insert(value.String("after"))
	if len(obs.events) != len(want) {
		t.Fatal("should not receive events after unsubscribe")
	}
}

func TestTable_ObserverFunc(t *testing.T) {
	table := NewTable()
	var dropped []Handle
	unsubscribe := table.Subscribe(ObserverFunc(func(e Event) {
		if e.Type == EventDropped {
			dropped = append(dropped, e.Handle)
		}
	}))
	defer unsubscribe()

	h := table.Insert(value.True)
	table.Release(h)
	if len(dropped) != 1 || dropped[0] != h {
		t.Fatalf("dropped = %v", dropped)
	}
}

func TestTable_HandleReuse(t *testing.T) {
	table := NewTable()
	h1 := table.Insert(value.Number(1))
	table.Release(h1)
	h2 := table.Insert(value.Number(2))
	if h1 != h2 {
		t.Fatalf("freed handle should be reused: %d vs %d", h1, h2)
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()
	d := &dropCounter{}
	table.Insert(value.Of(d))

	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if d.count != 1 {
		t.Fatalf("Drop called %d times, want 1", d.count)
	}
	if h := table.Insert(value.String("c")); h != 0 {
		t.Fatal("Expected Insert to fail after Close")
	}
}

type dropCounter struct {
	count int
}

func (d *dropCounter) Drop() {
	d.count++
}

func TestTable_DropperInterface(t *testing.T) {
	table := NewTable()
	d := &dropCounter{}

	h := table.Insert(value.Of(d))
	table.Release(h)

	if d.count != 1 {
		t.Fatalf("Expected Drop() to be called once, called %d times", d.count)
	}
}

func TestTable_Concurrent(t *testing.T) {
	table := NewTable()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h := table.Insert(value.Number(float64(j)))
				table.Release(h)
			}
		}()
	}
	wg.Wait()
	if table.Len() != 0 {
		t.Fatalf("Len = %d, want 0", table.Len())
	}
}
