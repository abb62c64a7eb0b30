package metrics

import "sort"

// StatusBucket is the aggregated count for one HTTP status code.
type StatusBucket struct {
	Code  int   `json:"code"`
	Count int64 `json:"count"`
}

// FlattenStatusCodes converts a status-code count map into a slice sorted by
// ascending code, the order reports print them in.
func FlattenStatusCodes(codes map[int]int64) []StatusBucket {
	if len(codes) == 0 {
		return nil
	}
	rows := make([]StatusBucket, 0, len(codes))
	for code, count := range codes {
		rows = append(rows, StatusBucket{Code: code, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows
}
