// Command clay compiles and renders templates from the command line.
//
// Usage:
//
//	clay compile [-minify] [file]
//	clay render [-scope file.json] [-format html|json] [file]
//
// With no file, the template is read from standard input.
// compile writes the compiled structure as JSON; render writes the tree the
// template produces for the given scope.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dsnet/try"
	"github.com/go-json-experiment/json"

	"github.com/canopyclimate/clay/compiler"
	"github.com/canopyclimate/clay/markup"
	"github.com/canopyclimate/clay/scope"
	"github.com/canopyclimate/clay/vdom"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("clay: ")
	defer try.F(log.Fatal)

	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "compile":
		compile(os.Args[2:], os.Stdout)
	case "render":
		render(os.Args[2:], os.Stdout)
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: clay compile [-minify] [file]")
	fmt.Fprintln(os.Stderr, "       clay render [-scope file.json] [-format html|json] [file]")
	os.Exit(2)
}

func compile(args []string, w io.Writer) {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	doMinify := fs.Bool("minify", false, "minify the markup before compiling")
	try.E(fs.Parse(args))

	src := readSource(fs.Arg(0))
	if *doMinify {
		src = try.E1(markup.Minify(src))
	}
	root := try.E1(compiler.CompileHTML(src, compiler.Options{}))
	b := try.E1(compiler.Marshal(root))
	try.E1(w.Write(append(b, '\n')))
}

func render(args []string, w io.Writer) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	scopeFile := fs.String("scope", "", "JSON `file` holding the scope")
	format := fs.String("format", "html", "output format: html or json")
	try.E(fs.Parse(args))

	s := scope.Scope{}
	if *scopeFile != "" {
		try.E(json.Unmarshal(try.E1(os.ReadFile(*scopeFile)), &s))
	}
	root := try.E1(compiler.CompileHTML(readSource(fs.Arg(0)), compiler.Options{}))
	n := compiler.Root(root, s)
	switch *format {
	case "html":
		try.E(vdom.RenderHTML(w, n))
		try.E1(io.WriteString(w, "\n"))
	case "json":
		try.E1(n.WriteTo(w))
		try.E1(io.WriteString(w, "\n"))
	default:
		try.E(fmt.Errorf("unknown format %q", *format))
	}
}

func readSource(name string) string {
	if name == "" || name == "-" {
		return string(try.E1(io.ReadAll(os.Stdin)))
	}
	return string(try.E1(os.ReadFile(name)))
}
