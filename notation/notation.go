// Package notation parses the compact slot notation for plant templates
//
//	~Growth_Speed x2 ~"Energy Roots"
//	[Cloud +Cost_Reduction *Poison x1.5 *Nutritious]
//	[]
//	[Projectile *Slow]
//
// Passives are prefixed with ~, slots are bracketed with the active first, modifiers
// prefixed with + and payloads with *. A trailing xN sets the power multiplier.
// Underscores in bare names stand for spaces; quote names or ids that need literal underscores
package notation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/lixenwraith/genegarden/config"
	"github.com/lixenwraith/genegarden/library"
	"github.com/lixenwraith/genegarden/sequence"
)

var ErrSyntax = errors.New("notation syntax error")

// Template is the parsed form of a notation source
type Template struct {
	Pos      lexer.Position
	Passives []*Ref  `("~" @@)*`
	Slots    []*Slot `@@*`
}

// Slot is one bracketed slot, Body is nil for an empty slot
type Slot struct {
	Pos  lexer.Position
	Body *SlotBody `"[" @@? "]"`
}

type SlotBody struct {
	Active *Ref    `@@`
	Parts  []*Part `@@*`
}

type Part struct {
	Modifier *Ref `  "+" @@`
	Payload  *Ref `| "*" @@`
}

// Ref names a gene by id or name with an optional power suffix
type Ref struct {
	Pos   lexer.Position
	Name  *Name `@@`
	Power Power `@Power?`
}

type Name struct {
	Bare  string `  @Ident`
	Quote string `| @String`
}

// Power captures an xN suffix, zero when absent
type Power float64

func (p *Power) Capture(values []string) error {
	v, err := strconv.ParseFloat(strings.TrimPrefix(values[0], "x"), 64)
	if err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("power must be positive, got %s", values[0])
	}
	*p = Power(v)
	return nil
}

// Gene returns the reference as written, bare underscores turned to spaces
func (r *Ref) Gene() string {
	if r.Name.Quote != "" {
		return r.Name.Quote
	}
	return strings.ReplaceAll(r.Name.Bare, "_", " ")
}

var notationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[\s,]+`},
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Power", Pattern: `x[0-9]+(\.[0-9]+)?`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Punct", Pattern: `[\[\]~+*]`},
	{Name: "Ident", Pattern: `[a-zA-Z0-9_][a-zA-Z0-9_-]*`},
})

var parser = participle.MustBuild[Template](
	participle.Lexer(notationLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
)

// Parse parses src into its syntax tree
func Parse(src string) (*Template, error) {
	tpl, err := parser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return tpl, nil
}

func entry(r *Ref) config.EntryDoc {
	return config.EntryDoc{Gene: r.Gene(), Power: float64(r.Power)}
}

// Doc converts the syntax tree into an authored template named name
func (t *Template) Doc(name string) config.TemplateDoc {
	doc := config.TemplateDoc{Name: name}
	for _, p := range t.Passives {
		doc.Passives = append(doc.Passives, entry(p))
	}
	for _, s := range t.Slots {
		var slot config.SlotDoc
		if s.Body != nil {
			slot.Active = s.Body.Active.Gene()
			for _, part := range s.Body.Parts {
				switch {
				case part.Modifier != nil:
					slot.Modifiers = append(slot.Modifiers, entry(part.Modifier))
				case part.Payload != nil:
					slot.Payloads = append(slot.Payloads, entry(part.Payload))
				}
			}
		}
		doc.Slots = append(doc.Slots, slot)
	}
	return doc
}

// Build parses src and converts it into an authored template
func Build(src, name string) (config.TemplateDoc, error) {
	tpl, err := Parse(src)
	if err != nil {
		return config.TemplateDoc{}, err
	}
	return tpl.Doc(name), nil
}

// Compile parses src and resolves it against lib into a validated template
func Compile(src, name string, lib *library.Library) (*sequence.Template, error) {
	doc, err := Build(src, name)
	if err != nil {
		return nil, err
	}
	return doc.Build(lib)
}
