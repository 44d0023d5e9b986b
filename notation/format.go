package notation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/sequence"
)

var (
	bareName    = regexp.MustCompile(`^[a-zA-Z0-9-]+( [a-zA-Z0-9-]+)*$`)
	powerPrefix = regexp.MustCompile(`^x[0-9]`)
)

// formatName writes a name bare when it reads back unchanged, quoted otherwise
func formatName(name string) string {
	if bareName.MatchString(name) && !powerPrefix.MatchString(name) {
		return strings.ReplaceAll(name, " ", "_")
	}
	return strconv.Quote(name)
}

func formatEntry(b *strings.Builder, prefix string, def *gene.Definition, power float64) {
	b.WriteString(prefix)
	b.WriteString(formatName(def.Name))
	if power > 0 && power != 1 {
		b.WriteString(" x")
		b.WriteString(strconv.FormatFloat(power, 'f', -1, 64))
	}
}

// Format renders tpl as notation, one line for passives and one per slot
func Format(tpl *sequence.Template) string {
	var b strings.Builder
	for i, p := range tpl.Passives {
		if p.Gene == nil {
			continue
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		formatEntry(&b, "~", p.Gene, p.Power)
	}
	for _, s := range tpl.Slots {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteByte('[')
		if s.Active != nil {
			formatEntry(&b, "", s.Active, 0)
			for _, m := range s.Modifiers {
				if m.Gene != nil {
					formatEntry(&b, " +", m.Gene, m.Power)
				}
			}
			for _, p := range s.Payloads {
				if p.Gene != nil {
					formatEntry(&b, " *", p.Gene, p.Power)
				}
			}
		}
		b.WriteByte(']')
	}
	return b.String()
}
