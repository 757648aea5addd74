package rangefill

import "fmt"

// Extent is the half-open byte range [Start, End) owned by one worker.
type Extent struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Len returns the number of bytes in the extent.
func (e Extent) Len() int64 {
	return e.End - e.Start
}

func (e Extent) String() string {
	return fmt.Sprintf("[%d, %d)", e.Start, e.End)
}

// Partition splits [0, total) into exactly workers contiguous extents in
// ascending order. Every extent gets total/workers bytes and the last one
// also takes the remainder. With more workers than bytes the base share is
// zero: the leading extents are empty and the last one covers the file.
func Partition(total int64, workers int) ([]Extent, error) {
	if total < 1 {
		return nil, invalidf("size must be positive, got %d", total)
	}
	if workers < 1 {
		return nil, invalidf("workers must be at least 1, got %d", workers)
	}

	chunk := total / int64(workers)
	extents := make([]Extent, workers)
	for i := range extents {
		start := int64(i) * chunk
		end := start + chunk
		if i == workers-1 {
			end = total
		}
		extents[i] = Extent{Start: start, End: end}
	}
	return extents, nil
}
