package netlist

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// PlacementLexer defines the lexical structure of placement files.
var PlacementLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments run to end of line
	{Name: "Comment", Pattern: `#[^\n]*`},

	{Name: "Whitespace", Pattern: `\s+`},

	// Quoted names for hierarchical cells such as "top/u0/ram_reg[3]"
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},

	// Bare names. No ':', '/' or ';' since those separate fields.
	{Name: "Ident", Pattern: `[A-Za-z0-9_$.\[\]<>-]+`},

	{Name: "Punct", Pattern: `[:/;]`},
})
