package rbtree

import (
	"errors"
	"fmt"
)

// Validation rules reported in Violation.Rule.
const (
	RuleColor       = "color"
	RuleRootColor   = "root-color"
	RuleRedRed      = "red-red"
	RuleBlackHeight = "black-height"
	RuleOrder       = "order"
	RuleParentLink  = "parent-link"
	RuleDangling    = "dangling-link"
	RuleCycle       = "cycle"
	RuleCount       = "count"
)

// Violation describes one broken invariant.
type Violation struct {
	Rule   string `json:"rule"   yaml:"rule"`
	Detail string `json:"detail" yaml:"detail"`
	Key    int    `json:"key"    yaml:"key"`
}

// Error renders the violation as a message.
func (v Violation) Error() string {
	return fmt.Sprintf("%s at key %d: %s", v.Rule, v.Key, v.Detail)
}

// ValidationReport summarizes a structural check of the tree.
type ValidationReport struct {
	RootColor string `json:"root_color" yaml:"root_color"`
	// Violations is empty for a well-formed tree.
	Violations []Violation `json:"violations" yaml:"violations"`
	Nodes      int         `json:"nodes"      yaml:"nodes"`
	Height     int         `json:"height"     yaml:"height"`
	// BlackHeight counts the black nodes on every root-to-leaf path, root included.
	BlackHeight int  `json:"black_height" yaml:"black_height"`
	Valid       bool `json:"valid"        yaml:"valid"`
}

// Err joins the violations under ErrInvariantViolation, or returns nil.
func (report ValidationReport) Err() error {
	if len(report.Violations) == 0 {
		return nil
	}

	errs := make([]error, 0, len(report.Violations))
	for _, violation := range report.Violations {
		errs = append(errs, violation)
	}

	return fmt.Errorf("%w: %w", ErrInvariantViolation, errors.Join(errs...))
}

// ColorName returns "red" or "black" ("invalid" for anything else).
func ColorName(c Color) string {
	switch c {
	case Red:
		return "red"
	case Black:
		return "black"
	default:
		return "invalid"
	}
}

// Validate walks the whole tree and checks every red-black and
// binary-search-tree invariant. It never modifies the tree.
func (tree *Tree) Validate() (ValidationReport, error) {
	tree.allocator.mustBeAwake()

	checker := &validator{
		alloc:   tree.storage(),
		visited: make(map[uint32]bool, tree.count),
	}

	report := ValidationReport{RootColor: "none"}

	if tree.root != nilNode {
		rootColor := tree.colorOf(tree.root)
		report.RootColor = ColorName(rootColor)

		if rootColor != Black {
			checker.fail(tree.storage()[tree.root].key, RuleRootColor, "root is "+ColorName(rootColor))
		}

		if parent := tree.storage()[tree.root].parent; parent != nilNode {
			checker.fail(tree.storage()[tree.root].key, RuleParentLink,
				fmt.Sprintf("root has parent slot %d", parent))
		}

		report.BlackHeight = checker.check(tree.root, nilNode, nil, nil)
	}

	report.Nodes = len(checker.visited)
	report.Height = checker.height

	if report.Nodes != tree.count {
		checker.fail(0, RuleCount, fmt.Sprintf("reached %d nodes, tree holds %d", report.Nodes, tree.count))
	}

	report.Violations = checker.violations
	report.Valid = len(report.Violations) == 0

	return report, report.Err()
}

type validator struct {
	alloc      []node
	visited    map[uint32]bool
	violations []Violation
	height     int
	depth      int
}

func (checker *validator) fail(key int, rule, detail string) {
	checker.violations = append(checker.violations, Violation{Rule: rule, Detail: detail, Key: key})
}

// check validates the subtree at idx and returns its black-height, counting
// idx itself. lower and upper bound the keys allowed in the subtree.
//
//nolint:gocognit // one pass over every node checks all the rules.
func (checker *validator) check(idx, parent uint32, lower, upper *int) int {
	if idx == nilNode {
		return 0
	}

	parentKey := 0
	if parent != nilNode {
		parentKey = checker.alloc[parent].key
	}

	if int(idx) >= len(checker.alloc) {
		checker.fail(parentKey, RuleDangling, fmt.Sprintf("child slot %d is outside the arena", idx))

		return 0
	}

	if checker.visited[idx] {
		checker.fail(parentKey, RuleCycle, fmt.Sprintf("slot %d is reachable twice", idx))

		return 0
	}

	checker.visited[idx] = true
	checker.depth++
	checker.height = max(checker.height, checker.depth)

	defer func() { checker.depth-- }()

	nd := checker.alloc[idx]

	if nd.parent != parent {
		checker.fail(nd.key, RuleParentLink, fmt.Sprintf("parent slot is %d, expected %d", nd.parent, parent))
	}

	if !nd.color.Valid() {
		checker.fail(nd.key, RuleColor, fmt.Sprintf("color value %d", nd.color))
	}

	if (lower != nil && nd.key <= *lower) || (upper != nil && nd.key >= *upper) {
		checker.fail(nd.key, RuleOrder, "key is outside the range allowed by its ancestors")
	}

	if nd.color == Red {
		for _, child := range [2]uint32{nd.left, nd.right} {
			if child != nilNode && int(child) < len(checker.alloc) && checker.alloc[child].color == Red {
				checker.fail(nd.key, RuleRedRed, fmt.Sprintf("red child %d", checker.alloc[child].key))
			}
		}
	}

	key := nd.key
	leftHeight := checker.check(nd.left, idx, lower, &key)
	rightHeight := checker.check(nd.right, idx, &key, upper)

	if leftHeight != rightHeight {
		checker.fail(nd.key, RuleBlackHeight,
			fmt.Sprintf("left black-height %d, right black-height %d", leftHeight, rightHeight))
	}

	blackHeight := max(leftHeight, rightHeight)
	if nd.color != Red {
		blackHeight++
	}

	return blackHeight
}
