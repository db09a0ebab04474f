// File: argconfig/doc.go

// Package argconfig resolves strongly typed, nested configuration records from three
// layered sources: command-line flags, a configuration file, and declared defaults,
// with strict precedence CLI > file > default.
//
// Features:
//   - Declared kind model: int, float, str, bool, choices, optionals, lists, tuples, maps and nested records
//   - Strict decoding of command-line tokens and strict validation of file and default values
//   - Nested records re-resolved field by field only when something in their subtree is overridden
//   - All missing required fields of a record reported together
//   - JSON, YAML and TOML configuration files, explicit or discovered
//   - Struct registration with tag support and scanning back into structs
//   - Custom flags next to record flags, via pflag
//   - Source tracking to see where values originated
//
// Quick Start:
//
//	inner := argconfig.NewSchema("Inner").
//	    Field("x", argconfig.Int, argconfig.Default(1)).
//	    Field("y", argconfig.Str, argconfig.Default("a"))
//	outer := argconfig.NewSchema("Outer").
//	    Field("inner", argconfig.Record(inner), argconfig.DefaultRecord()).
//	    Field("z", argconfig.Float, argconfig.Default(0.5))
//
//	parser, err := argconfig.NewBuilder().WithRecord(outer).Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := parser.Parse(os.Args[1:]) // --Outer.inner.x=5 --config app.yaml
//	if err != nil {
//	    log.Fatal(err)
//	}
//	x, _ := res.Records["Outer"].Int("inner.x")
//
// Precedence (highest to lowest):
//  1. Command-line arguments (--Outer.inner.x=5)
//  2. Configuration file (Outer: {inner: {x: 5}})
//  3. Default values
//
// A nested record with no override anywhere below it keeps its default instance as is.
//
// Thread Safety:
// Schemas are frozen once used and their flattened index is cached process-wide.
// Parser.Resolve may be called concurrently.
package argconfig
