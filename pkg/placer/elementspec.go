package placer

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ceoloide/kicad-kbplacer/pkg/kicad/pcb"
)

// elementLexer tokenizes element definition strings such as
// "D{} CUSTOM 5 -4.5 90 BACK" or "ST{} UNCHANGED;LED{} CURRENT_RELATIVE".
var elementLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "Semicolon", Pattern: `;`},
	{Name: "Option", Pattern: `\b(DEFAULT|CURRENT_RELATIVE|CUSTOM|UNCHANGED)\b`},
	{Name: "Side", Pattern: `\b(FRONT|BACK)\b`},
	{Name: "Annotation", Pattern: `[A-Za-z0-9_]*\{\}[A-Za-z0-9_]*`},
	{Name: "Number", Pattern: `[-+]?\d+(\.\d+)?`},
})

type elementInfoSpec struct {
	Annotation string        `parser:"@Annotation"`
	Option     string        `parser:"@Option"`
	Position   *positionSpec `parser:"@@?"`
}

type positionSpec struct {
	X             float64 `parser:"@Number"`
	Y             float64 `parser:"@Number"`
	RotationDelta float64 `parser:"@Number"`
	Side          string  `parser:"@Side"`
}

type elementInfoList struct {
	Infos []*elementInfoSpec `parser:"@@ ( Semicolon @@ )*"`
}

var elementInfoParser = participle.MustBuild[elementInfoList](
	participle.Lexer(elementLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// ParseElementInfo parses a single element definition string. The annotation
// format comes first, the position option is mandatory and CUSTOM takes the
// offset, rotation and side after it. A bare annotation is rejected.
func ParseElementInfo(input string) (ElementInfo, error) {
	infos, err := ParseElementInfoList(input)
	if err != nil {
		return ElementInfo{}, err
	}
	if len(infos) != 1 {
		return ElementInfo{}, &ConfigError{Reason: fmt.Sprintf("expected a single element definition, got %d", len(infos))}
	}
	return infos[0], nil
}

// ParseElementInfoList parses a semicolon-separated list of element
// definitions, as accepted for additional elements on the command line.
func ParseElementInfoList(input string) ([]ElementInfo, error) {
	parsed, err := elementInfoParser.ParseString("", input)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("cannot parse element definition %q: %s", input, err)}
	}

	infos := make([]ElementInfo, 0, len(parsed.Infos))
	for _, spec := range parsed.Infos {
		info := ElementInfo{Annotation: spec.Annotation}
		option, err := ParsePositionOption(spec.Option)
		if err != nil {
			return nil, &ConfigError{Reason: err.Error()}
		}
		info.Option = option
		if spec.Position != nil {
			side := pcb.SideFront
			if spec.Position.Side == "BACK" {
				side = pcb.SideBack
			}
			info.Position = &ElementPosition{
				Offset:        pcb.Position{X: spec.Position.X, Y: spec.Position.Y},
				RotationDelta: spec.Position.RotationDelta,
				Side:          side,
			}
		}
		if err := info.Validate(); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}
