package dataset

import (
	"fmt"

	"policymetrics/pkg/models"
)

// RepairAction records what MergeColumns did
type RepairAction string

const (
	RepairMerged  RepairAction = "merged"
	RepairRenamed RepairAction = "renamed"
	RepairSkipped RepairAction = "skipped"
)

// RepairResult describes one column repair
type RepairResult struct {
	From   string
	To     string
	Action RepairAction
	// Filled is the number of empty target cells taken from the source column
	Filled int
}

// DefaultRepairs are the misnamed columns found in policy exports
func DefaultRepairs() []models.ColumnRepair {
	return []models.ColumnRepair{
		{From: "sum_insureed", To: "sum_insured"},
		{From: "sale_dates", To: "sale_date"},
		{From: "first name", To: "first_name"},
	}
}

// MergeColumns fills every null cell of target from the same row of
// incorrect and then drops incorrect. Existing target values always win.
// When target does not exist incorrect is renamed to it; when incorrect does
// not exist nothing happens.
func MergeColumns(t *Table, incorrect, target string) (RepairResult, error) {
	result := RepairResult{From: incorrect, To: target}

	if incorrect == target {
		return result, fmt.Errorf("repair %q: source and target are the same column", incorrect)
	}

	src, ok := t.Column(incorrect)
	if !ok {
		result.Action = RepairSkipped
		return result, nil
	}

	dst, ok := t.Column(target)
	if !ok {
		if err := t.Rename(incorrect, target); err != nil {
			return result, err
		}
		result.Action = RepairRenamed
		for _, v := range src {
			if !v.IsNull() {
				result.Filled++
			}
		}
		return result, nil
	}

	merged := make([]Value, len(dst))
	for i, v := range dst {
		if v.IsNull() && !src[i].IsNull() {
			v = src[i]
			result.Filled++
		}
		merged[i] = v
	}
	if err := t.SetColumn(target, merged); err != nil {
		return result, err
	}
	t.Drop(incorrect)

	result.Action = RepairMerged
	return result, nil
}

// ApplyRepairs runs MergeColumns for each repair in order
func ApplyRepairs(t *Table, repairs []models.ColumnRepair) ([]RepairResult, error) {
	results := make([]RepairResult, 0, len(repairs))
	for _, r := range repairs {
		res, err := MergeColumns(t, r.From, r.To)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
