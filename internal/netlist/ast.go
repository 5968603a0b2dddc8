package netlist

import "github.com/alecthomas/participle/v2/lexer"

// File is a parsed placement file.
type File struct {
	Statements []*Statement `@@*`
}

// Statement is one placement:
//
//	place ram0 RAMD32 at SLICE_X0Y0:SLICEM/H5LUT ;
//	place "top/bram" RAMB18E1 at RAMB18_X0Y0:RAMB18/RAMB18E1 tile BRAM_L_X6Y0:BRAM_L ;
type Statement struct {
	Pos lexer.Position

	Cell     string   `"place" @(String | Ident)`
	CellType string   `@Ident`
	Site     string   `"at" @Ident`
	SiteType string   `":" @Ident`
	BEL      string   `"/" @Ident`
	Tile     *TileRef `@@? ";"`
}

// TileRef names the tile containing the site.
type TileRef struct {
	Name string `"tile" @Ident`
	Type string `":" @Ident`
}
