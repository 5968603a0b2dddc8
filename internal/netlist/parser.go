// Package netlist reads cell placements from placement files.
package netlist

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"

	"github.com/roach88/sitetag/internal/ir"
)

// Parser parses placement files.
type Parser struct {
	parser *participle.Parser[File]
}

// NewParser creates a new placement file parser.
func NewParser() (*Parser, error) {
	parser, err := participle.Build[File](
		participle.Lexer(PlacementLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}

	return &Parser{parser: parser}, nil
}

// Parse parses placements from a reader. The name is used in error positions.
func (p *Parser) Parse(name string, r io.Reader) ([]ir.Placement, error) {
	file, err := p.parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return file.Placements(), nil
}

// ParseString parses placements from a string.
func (p *Parser) ParseString(input string) ([]ir.Placement, error) {
	file, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return file.Placements(), nil
}

// ParseFile parses placements from a file path.
func (p *Parser) ParseFile(filename string) ([]ir.Placement, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(filename, file)
}

// Placements converts the statements to placements in file order.
func (f *File) Placements() []ir.Placement {
	out := make([]ir.Placement, 0, len(f.Statements))
	for _, s := range f.Statements {
		pl := ir.Placement{
			Cell:     s.Cell,
			CellType: s.CellType,
			Site:     s.Site,
			SiteType: s.SiteType,
			BEL:      s.BEL,
		}
		if s.Tile != nil {
			pl.Tile = s.Tile.Name
			pl.TileType = s.Tile.Type
		}
		out = append(out, pl)
	}
	return out
}
