package exercise

// Overlap thresholds for identify exercises. The selection does not need to
// match the correct span exactly: it must be mostly inside the correct span
// (selection coverage) and cover enough of it (correct-span coverage). The
// asymmetry tolerates imprecise selections while rejecting blanket ones.
const (
	identifySelectionCoverageMin = 0.60
	identifyCorrectCoverageMin   = 0.40
)

// Evaluate grades a response against an exercise and returns whether it is
// correct. It is pure, never panics, and fails closed: an unrecognized type
// or a response whose shape doesn't match the exercise evaluates to false.
// Consequences of the verdict (XP, hearts, review queue) are the caller's
// concern; Evaluate touches no state.
func Evaluate(ex Exercise, resp Response) bool {
	switch ex.Type {
	case TypeMultipleChoice, TypeFillBlank, TypeCompare, TypeImprove:
		return resp.Selected != nil && *resp.Selected == ex.Correct

	case TypeOrder:
		return checkOrder(ex, resp)

	case TypeMatch:
		return checkMatch(ex, resp)

	case TypeIdentify:
		return checkIdentify(ex, resp)

	default:
		return false
	}
}

// checkOrder requires the response sequence to equal the canonical order
// exactly. Sequence equality, not set equality: the same elements in a
// different order are wrong.
func checkOrder(ex Exercise, resp Response) bool {
	if len(resp.Order) != len(ex.CorrectOrder) || len(ex.CorrectOrder) == 0 {
		return false
	}
	for i, idx := range resp.Order {
		if idx != ex.CorrectOrder[i] {
			return false
		}
	}
	return true
}

// checkMatch requires every submitted pair to reconstruct the original
// pairing: left index i belongs with right index i, so a pair is correct iff
// its two indices are equal. The pair count must also match the exercise's.
func checkMatch(ex Exercise, resp Response) bool {
	if len(resp.Pairs) != len(ex.Pairs) || len(ex.Pairs) == 0 {
		return false
	}
	for _, pair := range resp.Pairs {
		if pair[0] != pair[1] {
			return false
		}
	}
	return true
}

// checkIdentify scores the overlap between the selected span and the correct
// span. Zero-length selections or correct spans are always incorrect.
func checkIdentify(ex Exercise, resp Response) bool {
	if resp.Span == nil {
		return false
	}

	selection := *resp.Span
	correct := Span{Start: ex.CorrectRange[0], End: ex.CorrectRange[1]}

	if selection.Length() <= 0 || correct.Length() <= 0 {
		return false
	}

	overlapStart := max(selection.Start, correct.Start)
	overlapEnd := min(selection.End, correct.End)
	overlap := overlapEnd - overlapStart
	if overlap < 0 {
		overlap = 0
	}

	selectionCoverage := float64(overlap) / float64(selection.Length())
	correctCoverage := float64(overlap) / float64(correct.Length())

	return selectionCoverage >= identifySelectionCoverageMin &&
		correctCoverage >= identifyCorrectCoverageMin
}
