// =============================================================================
// Manifest to Scale - Manifest Validator
// =============================================================================
//
// This module checks a parsed manifest before scale files are generated.
//
// VALIDATION ORDER (first failure wins):
//   1. The manifest must carry crates
//   2. Order numbers must be unique
//   3. Order and crate totals must be positive
//
// MODES:
//   ModeReport: a duplicate order number fails validation. Used for PDF
//               manifests, which are machine generated, so a duplicate means
//               the report itself is wrong.
//   ModeRepair: duplicates are repaired by suffixing each colliding order's
//               PO and order numbers with its store number. Used for CSV and
//               XLSX manifests, which are hand edited. The repaired manifest
//               is returned in the result. If order numbers still collide
//               after the repair the manifest fails as in ModeReport.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/BryceStandley/ManifestToScale/internal/manifest"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Kind classifies a validation failure.
type Kind int

const (
	KindEmpty Kind = iota + 1
	KindDuplicateOrder
	KindInvalidTotals
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindDuplicateOrder:
		return "duplicate order"
	case KindInvalidTotals:
		return "invalid totals"
	}
	return "unknown"
}

// Messages returned to callers. They are part of the upload contract.
const (
	MessageEmpty         = "Manifest is empty or null"
	MessageInvalidTotals = "Invalid total orders or crates in manifest"
	duplicatePrefix      = "Duplicate order found: "
)

// ValidationError describes why a manifest failed validation.
type ValidationError struct {
	Kind Kind

	// Message is the human readable message.
	Message string

	// OrderNumber is set for duplicate order failures.
	OrderNumber string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}


// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Mode selects how duplicate order numbers are handled.
type Mode int

const (
	ModeReport Mode = iota
	ModeRepair
)

func (m Mode) String() string {
	if m == ModeRepair {
		return "repair"
	}
	return "report"
}

// Result is the outcome of validating one manifest.
type Result struct {
	// Valid is true when the manifest may be converted.
	Valid bool

	// Message is empty for a clean manifest. For a repaired manifest it
	// describes the repair; for an invalid one it is the failure message.
	Message string

	// Repaired is the manifest to convert when duplicates were repaired.
	// It is nil when no repair happened.
	Repaired *manifest.OrderManifest

	// Err is the failure, nil when Valid.
	Err *ValidationError
}

// Manifest returns the manifest a caller should continue with: the repaired
// manifest when there is one, otherwise the original.
func (r Result) Manifest(original *manifest.OrderManifest) *manifest.OrderManifest {
	if r.Repaired != nil {
		return r.Repaired
	}
	return original
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validate checks m according to mode.
//
// PARAMETERS:
//   - m: The parsed manifest. A nil manifest is treated as empty.
//   - mode: ModeReport for PDF manifests, ModeRepair for tabular ones.
//
// RETURNS:
//   - The validation result. It never returns an error separately; failures
//     are carried in Result.Err.
func Validate(m *manifest.OrderManifest, mode Mode) Result {
	if m == nil || m.TotalCrates() == 0 {
		return invalid(&ValidationError{Kind: KindEmpty, Message: MessageEmpty})
	}

	var repaired *manifest.OrderManifest
	message := ""

	if dupes := duplicateOrderNumbers(m); len(dupes) > 0 {
		if mode == ModeReport {
			return invalid(&ValidationError{
				Kind:        KindDuplicateOrder,
				Message:     duplicatePrefix + dupes[0],
				OrderNumber: dupes[0],
			})
		}
		repaired = RepairDuplicates(m, dupes)
		// Orders sharing a store, or suffixes that land on an existing
		// order number, still collide after the repair.
		if remaining := duplicateOrderNumbers(repaired); len(remaining) > 0 {
			return invalid(&ValidationError{
				Kind:        KindDuplicateOrder,
				Message:     duplicatePrefix + remaining[0],
				OrderNumber: remaining[0],
			})
		}
		message = fmt.Sprintf("Repaired duplicate order numbers by appending store numbers: %s", strings.Join(dupes, ", "))
		m = repaired
	}

	if m.TotalOrders() <= 0 || m.TotalCrates() <= 0 {
		return invalid(&ValidationError{Kind: KindInvalidTotals, Message: MessageInvalidTotals})
	}

	return Result{Valid: true, Message: message, Repaired: repaired}
}

func invalid(err *ValidationError) Result {
	return Result{Valid: false, Message: err.Message, Err: err}
}

// duplicateOrderNumbers returns each order number that appears more than once,
// in order of first appearance.
func duplicateOrderNumbers(m *manifest.OrderManifest) []string {
	counts := make(map[string]int)
	var order []string
	for _, o := range m.Orders() {
		if counts[o.OrderNumber] == 0 {
			order = append(order, o.OrderNumber)
		}
		counts[o.OrderNumber]++
	}

	var dupes []string
	for _, n := range order {
		if counts[n] > 1 {
			dupes = append(dupes, n)
		}
	}
	return dupes
}

// RepairDuplicates returns a new manifest in which every order whose order
// number is listed in dupes has "-<storeNumber>" appended to both its PO and
// order numbers. Orders sharing an order number and a store number stay
// identical to each other.
func RepairDuplicates(m *manifest.OrderManifest, dupes []string) *manifest.OrderManifest {
	colliding := make(map[string]bool, len(dupes))
	for _, d := range dupes {
		colliding[d] = true
	}

	var keys []manifest.OrderKey
	seen := make(map[manifest.OrderKey]bool)
	for _, o := range m.Orders() {
		k := o.Key()
		if colliding[o.OrderNumber] && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	repaired := m
	for _, k := range keys {
		suffix := "-" + k.StoreNumber
		repaired = repaired.WithOrderUpdated(k, func(o manifest.StoreOrder) manifest.StoreOrder {
			o.PONumber += suffix
			o.OrderNumber += suffix
			return o
		})
	}
	return repaired
}
