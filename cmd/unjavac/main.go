// Command unjavac decompiles a Java .class file: it parses the class file,
// runs it through the full pipeline and prints a per-method summary table
// followed by the raw structured IR. There is no source pretty-printer —
// that stage is out of scope — so the IR dump is the tool's final output.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/go-kit/log"
	colorable "github.com/mattn/go-colorable"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/classlift/unjavac/classfile"
	"github.com/classlift/unjavac/decompile"
	"github.com/classlift/unjavac/ir"
)

func main() {
	app := &cli.App{
		Name:  "unjavac",
		Usage: "decompiles Java .class files",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log each pipeline stage to stderr"},
		},
		ArgsUsage: "FILE",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(colorable.NewColorableStderr(), color.RedString("unjavac: %v", err))
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("missing FILE argument", 1)
	}
	path := c.Args().First()

	cf, err := classfile.Load(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("loading %s: %v", path, err), 1)
	}

	var logger log.Logger = log.NewNopLogger()
	if c.Bool("verbose") {
		logger = log.NewLogfmtLogger(colorable.NewColorableStderr())
	}

	unit, err := decompile.Run(cf, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("decompiling %s: %v", path, err), 1)
	}

	printSummary(unit)
	fmt.Println()
	printIR(unit)
	return nil
}

func printSummary(cu *ir.CompilationUnit[ir.Block]) {
	fmt.Println(color.New(color.Bold).Sprintf("class %s extends %s", cu.Name, cu.SuperClass))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Kind", "Name", "Signature", "Statements"})
	for _, decl := range cu.Declarations {
		switch d := decl.(type) {
		case *ir.FieldDecl:
			table.Append([]string{"field", d.Name, d.Type.String(), "-"})
		case *ir.MethodDecl[ir.Block]:
			table.Append([]string{"method", d.Name, d.Signature.String(), fmt.Sprint(len(d.Code.Stmts))})
		case *ir.ConstructorDecl[ir.Block]:
			table.Append([]string{"constructor", "<init>", "", fmt.Sprint(len(d.Code.Stmts))})
		}
	}
	table.Render()
}

func printIR(cu *ir.CompilationUnit[ir.Block]) {
	fmt.Println(color.New(color.Underline).Sprint("STRUCTURED IR"))
	fmt.Printf("%#v\n", cu)
}
