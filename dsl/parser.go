package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/slidegenius/deck"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:;]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	fileParser = participle.MustBuild[File](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// File is the root AST node of a .deck file.
type File struct {
	Pos     lexer.Position `parser:""`
	Title   StringLiteral  `parser:"Newline* 'deck' @String"`
	Entries []*Entry       `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Entry is a top-level statement: a slide block or a deck property.
type Entry struct {
	Slide    *SlideBlock `parser:"  @@"`
	Property *Property   `parser:"| @@"`
}

// SlideBlock describes one content slide.
type SlideBlock struct {
	Pos   lexer.Position `parser:""`
	Title StringLiteral  `parser:"'slide' @String"`
	Items []*SlideItem   `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// SlideItem is either a bullet or a slide property.
type SlideItem struct {
	Bullet   *StringLiteral `parser:"  'bullet' @String"`
	Property *Property      `parser:"| @@"`
}

// Property uses colon syntax (key: value).
type Property struct {
	Pos   lexer.Position `parser:""`
	Key   string         `parser:"@Ident ':'"`
	Value *Value         `parser:"@@"`
}

// Value is a quoted string or a bare identifier.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Ident  *string        `parser:"| @Ident"`
}

// Text returns the value as plain text.
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses DSL content from an io.Reader. filename only appears in error positions.
func Parse(filename string, r io.Reader) (*File, error) {
	return fileParser.Parse(filename, r)
}

// ParseString parses DSL content from a string.
func ParseString(filename, input string) (*File, error) {
	return fileParser.ParseString(filename, input)
}

// Decode parses r and converts the result into a deck.Document.
func Decode(filename string, r io.Reader) (*deck.Document, error) {
	f, err := Parse(filename, r)
	if err != nil {
		return nil, err
	}
	return f.Document()
}

// Document converts the AST into the input model. Image properties are kept as
// paths; reading them is up to the caller.
func (f *File) Document() (*deck.Document, error) {
	doc := &deck.Document{Title: string(f.Title), Theme: deck.ThemeMinimal}
	for _, entry := range f.Entries {
		switch {
		case entry.Slide != nil:
			slide, err := entry.Slide.slide()
			if err != nil {
				return nil, err
			}
			doc.Slides = append(doc.Slides, slide)
		case entry.Property != nil:
			p := entry.Property
			switch p.Key {
			case "theme":
				theme, err := parseTheme(p)
				if err != nil {
					return nil, err
				}
				doc.Theme = theme
			case "cover":
				doc.CoverImagePath = p.Value.Text()
			default:
				return nil, fmt.Errorf("%s: 未知的文档属性 %q", p.Pos, p.Key)
			}
		}
	}
	return doc, nil
}

func (b *SlideBlock) slide() (deck.Slide, error) {
	s := deck.Slide{Title: string(b.Title)}
	for _, item := range b.Items {
		if item.Bullet != nil {
			s.Bullets = append(s.Bullets, string(*item.Bullet))
			continue
		}
		p := item.Property
		switch p.Key {
		case "footer":
			s.FooterNote = p.Value.Text()
		case "image":
			s.ImagePath = p.Value.Text()
		case "visual":
			s.VisualDescription = p.Value.Text()
		default:
			return deck.Slide{}, fmt.Errorf("%s: 幻灯片 %q 中未知的属性 %q", p.Pos, s.Title, p.Key)
		}
	}
	return s, nil
}

// parseTheme 与 deck.ParseTheme 不同，未知主题在 DSL 中视为错误。
func parseTheme(p *Property) (deck.Theme, error) {
	name := p.Value.Text()
	for _, t := range deck.Themes {
		if strings.EqualFold(name, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%s: 未知主题 %q", p.Pos, name)
}
