package ast

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
)

var parser = participle.MustBuild[File](
	participle.Lexer(Lexer),
	participle.UseLookahead(3),
	participle.Elide("Whitespace", "Comment"),
)

// Parse parses source bytes into a File
func Parse(filename string, src []byte) (*File, error) {
	file, err := parser.ParseBytes(filename, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return file, nil
}

// ParseString parses source text into a File
func ParseString(filename, src string) (*File, error) {
	return Parse(filename, []byte(src))
}

// ParseFile reads and parses a file from disk
func ParseFile(filename string) (*File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return Parse(filename, data)
}
