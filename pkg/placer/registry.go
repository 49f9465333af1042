package placer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ceoloide/kicad-kbplacer/pkg/kicad/pcb"
)

// FootprintRegistry resolves annotation formats plus switch indices to
// concrete footprints on one board.
type FootprintRegistry struct {
	board *pcb.Board
}

func NewFootprintRegistry(board *pcb.Board) *FootprintRegistry {
	return &FootprintRegistry{board: board}
}

// Format substitutes the index into the annotation format's placeholder,
// yielding a reference designator such as "SW12".
func Format(annotation string, index int) string {
	return strings.Replace(annotation, "{}", strconv.Itoa(index), 1)
}

// Switch resolves the unique footprint for a switch index. Ambiguous
// references are rejected rather than silently picking one.
func (r *FootprintRegistry) Switch(annotation string, index int) (*pcb.Footprint, error) {
	ref := Format(annotation, index)
	matches := r.board.FootprintsByReference(ref)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("footprint %q not found", ref)
	case 1:
		return matches[0], nil
	}
	return nil, fmt.Errorf("multiple footprints with reference %q", ref)
}

// All returns every footprint matching the annotation at the given index,
// in file order. Boards legitimately carry duplicate references for
// alternate component slots sharing one logical element.
func (r *FootprintRegistry) All(annotation string, index int) []*pcb.Footprint {
	return r.board.FootprintsByReference(Format(annotation, index))
}

// AnyMatch reports whether any footprint on the board matches the
// annotation format at any index.
func (r *FootprintRegistry) AnyMatch(annotation string) bool {
	prefix, suffix, ok := strings.Cut(annotation, "{}")
	if !ok {
		return false
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `\d+` + regexp.QuoteMeta(suffix) + `$`)
	for _, fp := range r.board.Footprints {
		if re.MatchString(fp.Reference) {
			return true
		}
	}
	return false
}
