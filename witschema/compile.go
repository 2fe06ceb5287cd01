package witschema

import (
	"strconv"

	"go.bytecodealliance.org/wit"

	"github.com/memwalk/schemafree/errors"
	"github.com/memwalk/schemafree/schema"
	"github.com/memwalk/schemafree/witschema/internal/layout"
)

// LayoutInfo is the linear-memory footprint of one WIT type.
type LayoutInfo = layout.Info

// Layout returns the Canonical ABI size, alignment, and record field
// offsets of t.
func Layout(t wit.Type) LayoutInfo {
	return layout.NewCalculator().Calculate(t)
}

// Compile derives the free schema for values of type t lowered into
// linear memory per the Canonical ABI.
func Compile(t wit.Type) (schema.Node, error) {
	c := &compiler{calc: layout.NewCalculator()}
	return c.compile(t, nil)
}

type compiler struct {
	calc *layout.Calculator
}

// byteSeq is the {ptr: u32, len: u32} header shared by strings and lists.
func byteSeq(elem schema.Node) *schema.Sequence {
	return &schema.Sequence{
		Elem:        elem,
		Ptr:         true,
		CountOffset: 4,
		CountWidth:  4,
		Size:        8,
	}
}

func (c *compiler) compile(t wit.Type, path []string) (schema.Node, error) {
	switch typ := t.(type) {
	case wit.Bool, wit.U8, wit.S8, wit.U16, wit.S16, wit.U32, wit.S32,
		wit.U64, wit.S64, wit.F32, wit.F64, wit.Char:
		info := c.calc.Calculate(t)
		return &schema.Scalar{Size: info.Size}, nil

	case wit.String:
		return byteSeq(&schema.Scalar{Size: 1}), nil

	case *wit.TypeDef:
		return c.compileTypeDef(typ, path)

	default:
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			Detail("WIT type").
			Build()
	}
}

func (c *compiler) compileTypeDef(t *wit.TypeDef, path []string) (schema.Node, error) {
	if t.Name != nil {
		path = append(path, *t.Name)
	}

	switch kind := t.Kind.(type) {
	case *wit.Record:
		return c.compileRecord(t, kind, path)

	case *wit.Tuple:
		return c.compileTuple(kind, path)

	case *wit.List:
		elem, err := c.compile(kind.Type, append(path, "[elem]"))
		if err != nil {
			return nil, err
		}
		return byteSeq(elem), nil

	case *wit.Enum:
		size := layout.DiscriminantSize(len(kind.Cases))
		return &schema.Scalar{Size: size}, nil

	case *wit.Flags:
		info := c.calc.Calculate(t)
		return &schema.Scalar{Size: info.Size}, nil

	case *wit.Own, *wit.Borrow:
		// Resource handles are table indices, not memory.
		return &schema.Scalar{Size: 4}, nil

	case *wit.Option:
		return c.purePayload(t, pure(kind.Type), path, "option")

	case *wit.Result:
		ok := kind.OK == nil || pure(kind.OK)
		er := kind.Err == nil || pure(kind.Err)
		return c.purePayload(t, ok && er, path, "result")

	case *wit.Variant:
		allPure := true
		for _, cs := range kind.Cases {
			if cs.Type != nil && !pure(cs.Type) {
				allPure = false
				break
			}
		}
		return c.purePayload(t, allPure, path, "variant")

	case wit.Type:
		return c.compile(kind, path)

	default:
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			Detail("TypeDef kind").
			Build()
	}
}

func (c *compiler) compileRecord(t *wit.TypeDef, r *wit.Record, path []string) (schema.Node, error) {
	info := c.calc.Calculate(t)
	node := &schema.Mapping{Size: info.Size}

	for _, field := range r.Fields {
		fieldNode, err := c.compile(field.Type, append(path, field.Name))
		if err != nil {
			return nil, err
		}
		node.Fields = append(node.Fields, schema.Field{
			Name:   field.Name,
			Offset: info.FieldOffs[field.Name],
			Node:   fieldNode,
		})
	}
	return node, nil
}

func (c *compiler) compileTuple(tp *wit.Tuple, path []string) (schema.Node, error) {
	node := &schema.Mapping{}
	offset := uint32(0)
	maxAlign := uint32(1)

	for i, elemType := range tp.Types {
		elemLayout := c.calc.Calculate(elemType)
		offset = layout.AlignTo(offset, elemLayout.Align)
		if elemLayout.Align > maxAlign {
			maxAlign = elemLayout.Align
		}

		name := strconv.Itoa(i)
		elemNode, err := c.compile(elemType, append(path, name))
		if err != nil {
			return nil, err
		}
		node.Fields = append(node.Fields, schema.Field{
			Name:   name,
			Offset: offset,
			Node:   elemNode,
		})
		offset += elemLayout.Size
	}

	node.Size = layout.AlignTo(offset, maxAlign)
	return node, nil
}

// purePayload turns discriminated shapes into plain scalars when nothing
// inside them owns memory, and rejects them otherwise.
func (c *compiler) purePayload(t *wit.TypeDef, isPure bool, path []string, what string) (schema.Node, error) {
	if !isPure {
		return nil, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Path(path...).
			Detail("%s with heap-owning payload: releasing it needs the runtime discriminant", what).
			Build()
	}
	info := c.calc.Calculate(t)
	return &schema.Scalar{Size: info.Size}, nil
}

// pure reports whether values of t own no heap memory.
func pure(t wit.Type) bool {
	switch typ := t.(type) {
	case wit.String:
		return false
	case *wit.TypeDef:
		switch kind := typ.Kind.(type) {
		case *wit.List:
			return false
		case *wit.Record:
			for _, f := range kind.Fields {
				if !pure(f.Type) {
					return false
				}
			}
			return true
		case *wit.Tuple:
			for _, e := range kind.Types {
				if !pure(e) {
					return false
				}
			}
			return true
		case *wit.Option:
			return pure(kind.Type)
		case *wit.Result:
			okPure := kind.OK == nil || pure(kind.OK)
			errPure := kind.Err == nil || pure(kind.Err)
			return okPure && errPure
		case *wit.Variant:
			for _, cs := range kind.Cases {
				if cs.Type != nil && !pure(cs.Type) {
					return false
				}
			}
			return true
		case *wit.Enum, *wit.Flags, *wit.Own, *wit.Borrow:
			return true
		case wit.Type:
			return pure(kind)
		default:
			return true
		}
	default:
		return true
	}
}
