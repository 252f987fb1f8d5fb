// nrbf - NRBF save file inspector and editor
//
// Usage:
//
//	nrbf inspect <file>                     Print header, stats, and libraries
//	nrbf get <file> <path>                  Print the value at a path
//	nrbf set <file> <path> <value>          Set a primitive and rewrite the file
//	nrbf set-string <file> <path> <value>   Replace a string value
//	nrbf set-guid <file> <path> <guid>      Replace a System.Guid
//	nrbf diff <a> <b>                       Print the change list between two files
//	nrbf apply <file> <edits.yaml>          Apply a batch of edits from YAML
//	nrbf version                            Print version info
//
// Editing commands write in place unless --out is given. Compressed
// saves (gzip, zlib, LZ4) are unwrapped on open and re-wrapped on
// save.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Neumenon/nrbf/nrbf"
	"github.com/Neumenon/nrbf/savefile"
)

const version = "0.3.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "inspect":
		cmdInspect(args)
	case "get":
		cmdGet(args)
	case "set":
		cmdSet(args, editPrimitive)
	case "set-string":
		cmdSet(args, editString)
	case "set-guid":
		cmdSet(args, editGuid)
	case "diff":
		cmdDiff(args)
	case "apply":
		cmdApply(args)
	case "version":
		fmt.Printf("nrbf %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "nrbf: unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: nrbf <command> [flags]

commands:
  inspect <file>                    print header, stats, and libraries
  get <file> <path>                 print the value at a path
  set <file> <path> <value>         set a primitive and rewrite the file
  set-string <file> <path> <value>  replace a string value
  set-guid <file> <path> <guid>     replace a System.Guid
  diff <a> <b>                      print the change list between two files
  apply <file> <edits.yaml>         apply a batch of edits from YAML
  version                           print version info

flags for editing commands:
  --out <file>     write to <file> instead of in place
  --manifest       write a <out>.manifest sidecar
  --strict-char    decode Char as a two-byte UTF-16 code unit`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "nrbf: "+format+"\n", args...)
	os.Exit(1)
}

func openFile(path string, strictChar bool) (*savefile.File, []byte) {
	data, err := os.ReadFile(path)
	if err != nil {
		fatal("read %s: %v", path, err)
	}
	f, err := savefile.OpenWithOptions(data, nrbf.DecodeOptions{StrictChar: strictChar})
	if err != nil {
		fatal("open %s: %v", path, err)
	}
	return f, data
}

func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	strictChar := fs.Bool("strict-char", false, "decode Char as two bytes")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fatal("inspect: want <file>")
	}

	f, _ := openFile(fs.Arg(0), *strictChar)
	doc := f.Doc
	stats := f.Stats()

	fmt.Printf("envelope:  %s\n", f.Envelope)
	fmt.Printf("container: %d bytes\n", f.ContainerSize)
	fmt.Printf("payload:   %d bytes\n", f.PayloadSize)
	fmt.Printf("root id:   %d\n", doc.Header.RootID)
	fmt.Printf("version:   %d.%d\n", doc.Header.Major, doc.Header.Minor)
	fmt.Printf("records:   %d (objects %d, classes %d, arrays %d, strings %d)\n",
		stats.Records, stats.Objects, stats.Classes, stats.Arrays, stats.Strings)

	if ids := doc.LibraryIDs(); len(ids) > 0 {
		fmt.Println("libraries:")
		for _, id := range ids {
			name, _ := doc.LibraryName(id)
			fmt.Printf("  %d: %s\n", id, name)
		}
	}
}

func cmdGet(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	strictChar := fs.Bool("strict-char", false, "decode Char as two bytes")
	fs.Parse(args)
	if fs.NArg() != 2 {
		fatal("get: want <file> <path>")
	}

	f, _ := openFile(fs.Arg(0), *strictChar)
	v := f.Doc.Get(fs.Arg(1))
	if v == nil {
		fatal("no value at %s", fs.Arg(1))
	}
	fmt.Println(valueText(v))
}

// valueText renders a value for CLI output.
func valueText(v *nrbf.Value) string {
	switch v.Kind() {
	case nrbf.ValueNull:
		return "null"
	case nrbf.ValuePrimitive:
		p, _ := v.Primitive()
		return p.Text()
	case nrbf.ValueReference:
		id, _ := v.ReferenceID()
		return fmt.Sprintf("^%d", id)
	case nrbf.ValueRecord:
		rec, _ := v.Record()
		if s, ok := rec.ObjectString(); ok {
			return s.Value
		}
		if c, ok := rec.Class(); ok {
			if nrbf.IsGuidClass(c) {
				if text, err := nrbf.GuidText(c); err == nil {
					return text
				}
			}
			return c.Info.Name
		}
		if a, ok := rec.Array(); ok {
			return fmt.Sprintf("array[%d]", a.Length())
		}
		return rec.Kind().String()
	}
	return ""
}

type editFn func(doc *nrbf.Document, path, value string) error

func editPrimitive(doc *nrbf.Document, path, value string) error {
	return doc.SetPrimitive(path, value)
}

func editString(doc *nrbf.Document, path, value string) error {
	return doc.SetString(path, value)
}

func editGuid(doc *nrbf.Document, path, value string) error {
	return doc.SetGuid(path, value)
}

func cmdSet(args []string, edit editFn) {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	out := fs.String("out", "", "output file (default: in place)")
	manifest := fs.Bool("manifest", false, "write a manifest sidecar")
	strictChar := fs.Bool("strict-char", false, "decode Char as two bytes")
	fs.Parse(args)
	if fs.NArg() != 3 {
		fatal("set: want <file> <path> <value>")
	}

	inPath := fs.Arg(0)
	f, raw := openFile(inPath, *strictChar)
	if err := edit(f.Doc, fs.Arg(1), fs.Arg(2)); err != nil {
		fatal("%v", err)
	}
	writeFile(f, raw, inPath, *out, *manifest)
}

func cmdApply(args []string) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	out := fs.String("out", "", "output file (default: in place)")
	manifest := fs.Bool("manifest", false, "write a manifest sidecar")
	strictChar := fs.Bool("strict-char", false, "decode Char as two bytes")
	fs.Parse(args)
	if fs.NArg() != 2 {
		fatal("apply: want <file> <edits.yaml>")
	}

	inPath := fs.Arg(0)
	f, raw := openFile(inPath, *strictChar)

	editsData, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		fatal("read %s: %v", fs.Arg(1), err)
	}
	var edits []editSpec
	if err := yaml.Unmarshal(editsData, &edits); err != nil {
		fatal("parse %s: %v", fs.Arg(1), err)
	}

	// All-or-nothing: any failing edit aborts before the file is
	// written.
	for i, e := range edits {
		var err error
		switch e.Kind {
		case "", "primitive":
			err = f.Doc.SetPrimitive(e.Path, e.Value)
		case "string":
			err = f.Doc.SetString(e.Path, e.Value)
		case "guid":
			err = f.Doc.SetGuid(e.Path, e.Value)
		default:
			err = fmt.Errorf("unknown edit kind %q", e.Kind)
		}
		if err != nil {
			fatal("edit %d (%s): %v", i+1, e.Path, err)
		}
	}
	fmt.Printf("applied %d edits\n", len(edits))
	writeFile(f, raw, inPath, *out, *manifest)
}

// editSpec is one entry of an apply file.
type editSpec struct {
	Path  string `yaml:"path"`
	Kind  string `yaml:"kind"` // primitive (default), string, guid
	Value string `yaml:"value"`
}

func writeFile(f *savefile.File, raw []byte, inPath, outPath string, withManifest bool) {
	encoded, err := f.Encode()
	if err != nil {
		fatal("encode: %v", err)
	}
	if outPath == "" {
		outPath = inPath
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		fatal("write %s: %v", outPath, err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", outPath, len(encoded))

	if withManifest {
		m := savefile.NewManifest(f, raw)
		data, err := m.Encode()
		if err != nil {
			fatal("manifest: %v", err)
		}
		sidecar := outPath + ".manifest"
		if err := os.WriteFile(sidecar, data, 0o644); err != nil {
			fatal("write %s: %v", sidecar, err)
		}
		fmt.Printf("wrote %s\n", sidecar)
	}
}

func cmdDiff(args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	strictChar := fs.Bool("strict-char", false, "decode Char as two bytes")
	fs.Parse(args)
	if fs.NArg() != 2 {
		fatal("diff: want <a> <b>")
	}

	fa, _ := openFile(fs.Arg(0), *strictChar)
	fb, _ := openFile(fs.Arg(1), *strictChar)

	changes := nrbf.Diff(fa.Doc, fb.Doc)
	if len(changes) == 0 {
		fmt.Println("no changes")
		return
	}
	for _, c := range changes {
		switch c.Kind {
		case nrbf.ChangeModified:
			fmt.Printf("~ %s: %s -> %s\n", c.Path, c.Old, c.New)
		case nrbf.ChangeAdded:
			fmt.Printf("+ %s: %s\n", c.Path, c.New)
		case nrbf.ChangeRemoved:
			fmt.Printf("- %s: %s\n", c.Path, c.Old)
		}
	}
	os.Exit(2)
}
