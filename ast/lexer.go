package ast

import "github.com/alecthomas/participle/v2/lexer"

// Lexer defines the token rules for parsing Jadescript declaration headers
// and conditions.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `//[^\n]*|#[^\n]*`, Action: nil},
		{Name: "Whitespace", Pattern: `\s+`, Action: nil},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`, Action: nil},
		{Name: "Punct", Pattern: `[(),.]`, Action: nil},
		{Name: "Braces", Pattern: `[{}]`, Action: nil},
	},
})
