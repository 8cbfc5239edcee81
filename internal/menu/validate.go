package menu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jask/menutree/internal/accel"
)

var (
	// ErrEmptyID indicates a node without an id.
	ErrEmptyID = errors.New("node id is required")
	// ErrDuplicateID indicates two siblings share an id.
	ErrDuplicateID = errors.New("duplicate sibling id")
	// ErrEmptySubmenu indicates a static submenu with no children.
	ErrEmptySubmenu = errors.New("submenu has no children")
	// ErrSeparatorAction indicates a separator that carries an action.
	ErrSeparatorAction = errors.New("separator carries an action")
	// ErrSeparatorChildren indicates a separator with children.
	ErrSeparatorChildren = errors.New("separator has children")
	// ErrMissingAction indicates an action node without an action id.
	ErrMissingAction = errors.New("action node has no action id")
	// ErrActionChildren indicates an action node with children.
	ErrActionChildren = errors.New("action node has children")
	// ErrBadAccelerator indicates an accelerator outside the descriptor grammar.
	ErrBadAccelerator = errors.New("invalid accelerator")
	// ErrUnknownKind indicates a node kind outside the variant set.
	ErrUnknownKind = errors.New("unknown node kind")
)

// StructuralError locates one structural problem in a tree.
type StructuralError struct {
	Path string
	Err  error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("menu node %q: %v", e.Path, e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// Validate checks the structural invariants of a tree and returns every
// violation joined together, or nil.
func Validate(nodes []Node) error {
	var errs []error
	validateLevel(nodes, "", &errs)
	return errors.Join(errs...)
}

func validateLevel(nodes []Node, prefix string, errs *[]error) {
	seen := make(map[string]bool, len(nodes))
	for i, n := range nodes {
		id := strings.TrimSpace(n.ID)
		path := id
		if id == "" {
			path = fmt.Sprintf("#%d", i)
		}
		if prefix != "" {
			path = prefix + PathSep + path
		}
		fail := func(err error) {
			*errs = append(*errs, &StructuralError{Path: path, Err: err})
		}

		if id == "" {
			fail(ErrEmptyID)
		} else if seen[id] {
			fail(ErrDuplicateID)
		}
		seen[id] = true

		if n.Accelerator != "" {
			if _, err := accel.Parse(n.Accelerator); err != nil {
				fail(fmt.Errorf("%w: %v", ErrBadAccelerator, err))
			}
		}

		switch n.Kind {
		case KindSeparator:
			if n.Action != nil {
				fail(ErrSeparatorAction)
			}
			if len(n.Children) > 0 {
				fail(ErrSeparatorChildren)
			}
		case KindAction:
			if n.Action == nil || strings.TrimSpace(n.Action.ID) == "" {
				fail(ErrMissingAction)
			}
			if len(n.Children) > 0 {
				fail(ErrActionChildren)
			}
		case KindSubmenu:
			// Section submenus are filled at runtime and may start empty.
			if len(n.Children) == 0 && n.Section == SectionNone {
				fail(ErrEmptySubmenu)
			}
			validateLevel(n.Children, path, errs)
		default:
			fail(ErrUnknownKind)
		}
	}
}
