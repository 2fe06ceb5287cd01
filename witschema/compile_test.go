package witschema

import (
	stderrors "errors"
	"testing"

	"go.bytecodealliance.org/wit"

	"github.com/memwalk/schemafree"
	"github.com/memwalk/schemafree/arena"
	sferrors "github.com/memwalk/schemafree/errors"
	"github.com/memwalk/schemafree/schema"
)

func mustCompile(t *testing.T, typ wit.Type) schema.Node {
	t.Helper()
	node, err := Compile(typ)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return node
}

func TestCompilePrimitives(t *testing.T) {
	tests := []struct {
		name string
		typ  wit.Type
		size uint32
	}{
		{"bool", wit.Bool{}, 1},
		{"u8", wit.U8{}, 1},
		{"s16", wit.S16{}, 2},
		{"u32", wit.U32{}, 4},
		{"s64", wit.S64{}, 8},
		{"f32", wit.F32{}, 4},
		{"f64", wit.F64{}, 8},
		{"char", wit.Char{}, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			node := mustCompile(t, tc.typ)
			sc, ok := node.(*schema.Scalar)
			if !ok {
				t.Fatalf("node = %T, want *schema.Scalar", node)
			}
			if sc.Size != tc.size {
				t.Errorf("size = %d, want %d", sc.Size, tc.size)
			}
			if sc.Ptr {
				t.Errorf("primitive must not be pointer-owned")
			}
		})
	}
}

func TestCompileString(t *testing.T) {
	node := mustCompile(t, wit.String{})
	seq, ok := node.(*schema.Sequence)
	if !ok {
		t.Fatalf("node = %T, want *schema.Sequence", node)
	}
	if !seq.Ptr {
		t.Errorf("string body must be pointer-owned")
	}
	if seq.CountOffset != 4 || seq.CountWidth != 4 {
		t.Errorf("count field = (%d, %d), want (4, 4)", seq.CountOffset, seq.CountWidth)
	}
	if elem, ok := seq.Elem.(*schema.Scalar); !ok || elem.Size != 1 {
		t.Errorf("string elem = %#v, want 1-byte scalar", seq.Elem)
	}
}

func TestCompileListOfU32(t *testing.T) {
	node := mustCompile(t, &wit.TypeDef{Kind: &wit.List{Type: wit.U32{}}})
	seq, ok := node.(*schema.Sequence)
	if !ok {
		t.Fatalf("node = %T, want *schema.Sequence", node)
	}
	if schema.Stride(seq.Elem) != 4 {
		t.Errorf("element stride = %d, want 4", schema.Stride(seq.Elem))
	}
}

func TestCompileRecord(t *testing.T) {
	name := "point"
	record := &wit.TypeDef{
		Name: &name,
		Kind: &wit.Record{
			Fields: []wit.Field{
				{Name: "tag", Type: wit.U8{}},
				{Name: "label", Type: wit.String{}},
				{Name: "weight", Type: wit.U64{}},
			},
		},
	}

	node := mustCompile(t, record)
	m, ok := node.(*schema.Mapping)
	if !ok {
		t.Fatalf("node = %T, want *schema.Mapping", node)
	}
	if len(m.Fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(m.Fields))
	}

	offsets := map[string]uint32{}
	for _, f := range m.Fields {
		offsets[f.Name] = f.Offset
	}
	// u8 at 0, string header aligned to 4, u64 aligned to 8.
	if offsets["tag"] != 0 || offsets["label"] != 4 || offsets["weight"] != 16 {
		t.Errorf("offsets = %v, want tag=0 label=4 weight=16", offsets)
	}
	if m.Size != 24 {
		t.Errorf("record size = %d, want 24", m.Size)
	}
}

func TestCompileTuple(t *testing.T) {
	tuple := &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U8{}, wit.U32{}}}}
	node := mustCompile(t, tuple)
	m, ok := node.(*schema.Mapping)
	if !ok {
		t.Fatalf("node = %T, want *schema.Mapping", node)
	}
	if m.Fields[0].Offset != 0 || m.Fields[1].Offset != 4 {
		t.Errorf("tuple offsets = %d, %d, want 0, 4", m.Fields[0].Offset, m.Fields[1].Offset)
	}
	if m.Size != 8 {
		t.Errorf("tuple size = %d, want 8", m.Size)
	}
}

func TestCompileEnumAndFlags(t *testing.T) {
	enum := &wit.TypeDef{Kind: &wit.Enum{Cases: make([]wit.EnumCase, 3)}}
	node := mustCompile(t, enum)
	if sc, ok := node.(*schema.Scalar); !ok || sc.Size != 1 {
		t.Errorf("enum node = %#v, want 1-byte scalar", node)
	}

	flags := &wit.TypeDef{Kind: &wit.Flags{Flags: make([]wit.Flag, 40)}}
	node = mustCompile(t, flags)
	if sc, ok := node.(*schema.Scalar); !ok || sc.Size != 8 {
		t.Errorf("flags node = %#v, want 8-byte scalar", node)
	}
}

func TestCompileHandles(t *testing.T) {
	for _, kind := range []wit.TypeDefKind{&wit.Own{}, &wit.Borrow{}} {
		node := mustCompile(t, &wit.TypeDef{Kind: kind})
		if sc, ok := node.(*schema.Scalar); !ok || sc.Size != 4 {
			t.Errorf("handle node = %#v, want 4-byte scalar", node)
		}
	}
}

func TestCompilePureOption(t *testing.T) {
	opt := &wit.TypeDef{Kind: &wit.Option{Type: wit.U32{}}}
	node := mustCompile(t, opt)
	if sc, ok := node.(*schema.Scalar); !ok || sc.Size != 8 {
		t.Errorf("option<u32> node = %#v, want 8-byte scalar", node)
	}
}

func TestCompileImpureOptionRejected(t *testing.T) {
	opt := &wit.TypeDef{Kind: &wit.Option{Type: wit.String{}}}
	_, err := Compile(opt)
	if err == nil {
		t.Fatal("expected error for option<string>")
	}
	var sfe *sferrors.Error
	if !stderrors.As(err, &sfe) || sfe.Kind != sferrors.KindUnsupported {
		t.Errorf("err = %v, want unsupported", err)
	}
}

func TestCompileImpureVariantRejected(t *testing.T) {
	variant := &wit.TypeDef{Kind: &wit.Variant{
		Cases: []wit.Case{
			{Name: "none"},
			{Name: "text", Type: wit.String{}},
		},
	}}
	if _, err := Compile(variant); err == nil {
		t.Fatal("expected error for variant carrying a string")
	}
}

func TestCompilePureVariant(t *testing.T) {
	variant := &wit.TypeDef{Kind: &wit.Variant{
		Cases: []wit.Case{
			{Name: "a", Type: wit.U32{}},
			{Name: "b", Type: wit.U8{}},
		},
	}}
	node := mustCompile(t, variant)
	if _, ok := node.(*schema.Scalar); !ok {
		t.Errorf("pure variant node = %T, want scalar", node)
	}
}

// TestFreeLoweredListOfStrings drives the whole pipeline: lower a
// list<string> by hand the way a guest would, compile its free schema,
// and check every block comes back.
func TestFreeLoweredListOfStrings(t *testing.T) {
	a := arena.New(4096)

	strs := []string{"alpha", "beta"}

	// Outer header {ptr, len}.
	data, err := a.Alloc(8, 4)
	if err != nil {
		t.Fatal(err)
	}
	// Array of inner {ptr, len} headers.
	body, err := a.Alloc(uint32(len(strs)*8), 4)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range strs {
		strPtr, err := a.Alloc(uint32(len(s)), 1)
		if err != nil {
			t.Fatal(err)
		}
		if err := a.Write(strPtr, []byte(s)); err != nil {
			t.Fatal(err)
		}
		if err := a.WriteU32(body+uint32(i*8), strPtr); err != nil {
			t.Fatal(err)
		}
		if err := a.WriteU32(body+uint32(i*8)+4, uint32(len(s))); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.WriteU32(data, body); err != nil {
		t.Fatal(err)
	}
	if err := a.WriteU32(data+4, uint32(len(strs))); err != nil {
		t.Fatal(err)
	}

	listType := &wit.TypeDef{Kind: &wit.List{Type: wit.String{}}}
	node := mustCompile(t, listType)

	cfg := &schemafree.Config{Memory: a, Releaser: a}
	if err := schemafree.Free(cfg, node, data); err != nil {
		t.Fatal(err)
	}

	if a.Live() != 0 {
		t.Errorf("leaked %d blocks", a.Live())
	}
	if faults := a.Faults(); len(faults) != 0 {
		t.Errorf("allocator faults: %v", faults)
	}
}
