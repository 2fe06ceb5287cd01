package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/memwalk/schemafree"
	"github.com/memwalk/schemafree/schema"
	"github.com/memwalk/schemafree/witschema"
)

func main() {
	var (
		typeExpr    = flag.String("type", "", "WIT type expression (e.g. list<string>)")
		imageFile   = flag.String("image", "", "Path to raw linear-memory image")
		rootAddr    = flag.Uint("root", 0, "Root address of the structure in the image")
		verbose     = flag.Bool("v", false, "Log every release")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *typeExpr == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: freewalk -type <wit-type> [-image <file> -root <addr>]")
		fmt.Fprintln(os.Stderr, "       freewalk -i [-type <wit-type>] [-image <file> -root <addr>]")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*typeExpr, *imageFile, uint32(*rootAddr)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*typeExpr, *imageFile, uint32(*rootAddr), *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(typeExpr, imageFile string, root uint32, verbose bool) error {
	typ, err := wit.ParseType(typeExpr)
	if err != nil {
		return fmt.Errorf("parse type: %w", err)
	}

	node, err := witschema.Compile(typ)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	info := witschema.Layout(typ)

	fmt.Printf("Type: %s\n", typeExpr)
	fmt.Printf("Lowered size: %d, align: %d\n", info.Size, info.Align)
	fmt.Printf("\nFree schema:\n")
	fmt.Print(describe(node, "", 1))

	if imageFile == "" {
		return nil
	}

	data, err := os.ReadFile(imageFile)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	rel := &traceReleaser{}
	cfg := &schemafree.Config{
		Memory:   &image{data: data},
		Releaser: rel,
	}
	if verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer log.Sync()
		cfg.Log = log
	}

	fmt.Printf("\nWalking image %s (%d bytes) from root 0x%x...\n", imageFile, len(data), root)
	if err := schemafree.Free(cfg, node, root); err != nil {
		return fmt.Errorf("free: %w", err)
	}

	fmt.Printf("Released %d blocks:\n", len(rel.freed))
	for _, ptr := range rel.freed {
		fmt.Printf("  0x%08x\n", ptr)
	}
	return nil
}

// describe renders a schema node as an indented tree.
func describe(n schema.Node, name string, depth int) string {
	indent := strings.Repeat("  ", depth)
	label := indent
	if name != "" {
		label += name + ": "
	}
	if n.Pointer() {
		label += "*"
	}

	switch nd := n.(type) {
	case *schema.Scalar:
		return fmt.Sprintf("%sscalar (%d bytes)\n", label, nd.Size)

	case *schema.Mapping:
		var b strings.Builder
		fmt.Fprintf(&b, "%smapping (%d bytes, %d fields)\n", label, nd.Size, len(nd.Fields))
		for _, f := range nd.Fields {
			b.WriteString(describe(f.Node, fmt.Sprintf("%s @%d", f.Name, f.Offset), depth+1))
		}
		return b.String()

	case *schema.Sequence:
		var b strings.Builder
		fmt.Fprintf(&b, "%ssequence (count at +%d, width %d)\n", label, nd.CountOffset, nd.CountWidth)
		b.WriteString(describe(nd.Elem, "elem", depth+1))
		return b.String()

	case *schema.SequenceFixed:
		var b strings.Builder
		fmt.Fprintf(&b, "%ssequence[%d]\n", label, nd.Count)
		b.WriteString(describe(nd.Elem, "elem", depth+1))
		return b.String()

	default:
		return fmt.Sprintf("%s%T\n", label, n)
	}
}

// image is a read-only Memory over a raw byte snapshot.
type image struct {
	data []byte
}

func (m *image) Read(offset uint32, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.data)) {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d, size=%d", offset, length, len(m.data))
	}
	return m.data[offset:end], nil
}

func (m *image) ReadU8(offset uint32) (uint8, error) {
	b, err := m.Read(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *image) ReadU16(offset uint32) (uint16, error) {
	b, err := m.Read(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (m *image) ReadU32(offset uint32) (uint32, error) {
	b, err := m.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *image) ReadU64(offset uint32) (uint64, error) {
	b, err := m.Read(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// traceReleaser records every pointer handed to Free, in order.
type traceReleaser struct {
	freed []uint32
}

func (r *traceReleaser) Free(ptr uint32) {
	r.freed = append(r.freed, ptr)
}
