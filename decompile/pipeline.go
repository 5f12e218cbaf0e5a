package decompile

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/classlift/unjavac/cfg"
	"github.com/classlift/unjavac/classfile"
	"github.com/classlift/unjavac/ctor"
	"github.com/classlift/unjavac/ir"
	"github.com/classlift/unjavac/lift"
	"github.com/classlift/unjavac/propagate"
	"github.com/classlift/unjavac/structure"
)

// Pipeline runs every remaining stage over cu's already-disassembled
// methods, in order: control-flow graph construction, stack-to-variable
// lifting, variable propagation, constructor reclassification and finally
// control-flow structuring. logger receives one debug line per method for
// each per-method stage, one for the constructor pass as a whole, plus a
// closing info line for the class; a nil logger discards them.
func Pipeline(cu *ir.CompilationUnit[ir.Code], logger log.Logger) (*ir.CompilationUnit[ir.Block], error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	logger = log.With(logger, "class", cu.Name)

	withCfg, err := ir.MapUnit(cu, func(name string, code ir.Code) (*ir.Cfg[ir.Instruction, ir.JumpCondition], error) {
		g, err := cfg.Build(&code)
		if err != nil {
			return nil, errors.Wrapf(err, "method %s", name)
		}
		level.Debug(logger).Log("stage", "cfg", "method", name, "blocks", len(g.Labels()))
		return g, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decompile: control-flow-graph stage")
	}

	metadata := cu.Metadata
	withStmts, err := ir.MapUnit(withCfg, func(name string, g *ir.Cfg[ir.Instruction, ir.JumpCondition]) (*ir.Cfg[ir.Statement, ir.Expr], error) {
		lifted, err := lift.Lift(g, metadata)
		if err != nil {
			return nil, errors.Wrapf(err, "method %s", name)
		}
		level.Debug(logger).Log("stage", "lift", "method", name)
		return lifted, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decompile: stack-to-variable lift stage")
	}

	withPropagated, err := ir.MapUnit(withStmts, func(name string, g *ir.Cfg[ir.Statement, ir.Expr]) (*ir.Cfg[ir.Statement, ir.Expr], error) {
		propagate.Propagate(g)
		level.Debug(logger).Log("stage", "propagate", "method", name)
		return g, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decompile: variable propagation stage")
	}

	withCtors, err := ctor.Reclassify(withPropagated)
	if err != nil {
		return nil, errors.Wrap(err, "decompile: constructor pass")
	}
	level.Debug(logger).Log("stage", "ctor")

	structured, err := ir.MapUnit(withCtors, func(name string, g *ir.Cfg[ir.Statement, ir.Expr]) (ir.Block, error) {
		block, err := structure.Structure(g)
		if err != nil {
			return ir.Block{}, errors.Wrapf(err, "method %s", name)
		}
		level.Debug(logger).Log("stage", "structure", "method", name)
		return block, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decompile: control-flow structuring stage")
	}

	level.Info(logger).Log("msg", "decompiled class", "declarations", len(structured.Declarations))
	return structured, nil
}

// Run chains BuildUnit and Pipeline: the single entry point from a parsed
// class file to a fully structured CompilationUnit.
func Run(cf *classfile.ClassFile, logger log.Logger) (*ir.CompilationUnit[ir.Block], error) {
	cu, err := BuildUnit(cf)
	if err != nil {
		return nil, err
	}
	return Pipeline(cu, logger)
}
