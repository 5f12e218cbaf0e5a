// Command jvdump parses a Java .class file and dumps its constant pool and
// member tables, without running any part of the decompilation pipeline —
// a quick way to inspect a class file's raw structure.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/classlift/unjavac/classfile"
)

func main() {
	app := &cli.App{
		Name:      "jvdump",
		Usage:     "dumps a Java .class file's constant pool and member tables",
		ArgsUsage: "FILE",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(colorable.NewColorableStderr(), color.RedString("jvdump: %v", err))
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

	name, err := cf.ThisClassName()
	if err != nil {
		return cli.Exit(fmt.Sprintf("resolving class name: %v", err), 1)
	}
	super, err := cf.SuperClassName()
	if err != nil {
		return cli.Exit(fmt.Sprintf("resolving superclass name: %v", err), 1)
	}
	fmt.Println(color.New(color.Bold).Sprintf("%s extends %s (major=%d minor=%d)", name, super, cf.Major, cf.Minor))

	fmt.Println(color.New(color.Underline).Sprint("\nconstant pool"))
	pool := tablewriter.NewWriter(os.Stdout)
	pool.SetHeader([]string{"#", "Kind", "Value"})
	for i, entry := range cf.ConstantPool.Entries {
		if entry == nil {
			continue
		}
		pool.Append([]string{fmt.Sprint(i), fmt.Sprintf("%T", entry), fmt.Sprintf("%+v", entry)})
	}
	pool.Render()

	dumpMembers("fields", cf, cf.Fields)
	dumpMembers("methods", cf, cf.Methods)
	return nil
}

func dumpMembers(label string, cf *classfile.ClassFile, members []classfile.MemberInfo) {
	fmt.Println(color.New(color.Underline).Sprintf("\n%s", label))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Descriptor", "AccessFlags"})
	for _, m := range members {
		name, err := cf.MethodName(m)
		if err != nil {
			name = "<unresolved>"
		}
		descriptor, err := cf.MethodDescriptor(m)
		if err != nil {
			descriptor = "<unresolved>"
		}
		table.Append([]string{name, descriptor, fmt.Sprintf("0x%04x", m.AccessFlags)})
	}
	table.Render()
}
