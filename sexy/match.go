package sexy

import "fmt"

// Match reports whether actual has the shape described by pattern. It
// returns nil on success and otherwise an error naming the path of the
// first mismatch.
//
// An ellipsis pattern matches any datum. Inside a list or array it
// matches any run of items, including an empty one. A bare integer
// pattern also matches the list (integer N), so (binary "+" 1 2)
// matches (binary "+" (integer 1) (integer 2)).
func Match(pattern, actual *Node) error {
	return match(pattern, actual, "root")
}

func match(pattern, actual *Node, path string) error {
	if pattern.Type == NodeEllipsis {
		return nil
	}
	if pattern.Type == NodeInteger && actual.Head() == "integer" && len(actual.Items) == 2 {
		actual = actual.Items[1]
	}
	if pattern.Type != actual.Type {
		return fmt.Errorf("at %s: expected %s %s, got %s %s", path, pattern.Type, pattern, actual.Type, actual)
	}
	if pattern.IsAtom() {
		if pattern.Text != actual.Text {
			return fmt.Errorf("at %s: expected %s, got %s", path, pattern, actual)
		}
		return nil
	}
	if !matchItems(pattern.Items, actual.Items, path) {
		// Report the first differing item for the common non-ellipsis case.
		for i := 0; i < len(pattern.Items) && i < len(actual.Items); i++ {
			if pattern.Items[i].Type == NodeEllipsis {
				break
			}
			if err := match(pattern.Items[i], actual.Items[i], fmt.Sprintf("%s.%d", path, i)); err != nil {
				return err
			}
		}
		return fmt.Errorf("at %s: expected %s, got %s", path, pattern, actual)
	}
	return nil
}

func matchItems(patterns, actuals []*Node, path string) bool {
	if len(patterns) == 0 {
		return len(actuals) == 0
	}
	if patterns[0].Type == NodeEllipsis {
		for skip := 0; skip <= len(actuals); skip++ {
			if matchItems(patterns[1:], actuals[skip:], path) {
				return true
			}
		}
		return false
	}
	if len(actuals) == 0 || match(patterns[0], actuals[0], path) != nil {
		return false
	}
	return matchItems(patterns[1:], actuals[1:], path)
}
