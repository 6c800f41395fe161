package stock

// LineAllocation reports the outcome of reserving stock for one order line.
// Shortage is a valid business outcome surfaced to the caller as data, not
// an error: the portion of the request that could not be reserved.
type LineAllocation struct {
	ProductID uint64 `json:"product_id"`
	Requested int64  `json:"requested"`
	Reserved  int64  `json:"reserved"`
	Shortage  int64  `json:"shortage"`
}

// AllocationSummary aggregates per-line outcomes for an order approval
type AllocationSummary struct {
	Lines         []LineAllocation `json:"lines"`
	TotalReserved int64            `json:"total_reserved"`
	TotalShortage int64            `json:"total_shortage"`
}

// Add appends a line outcome and updates the aggregates
func (s *AllocationSummary) Add(line LineAllocation) {
	s.Lines = append(s.Lines, line)
	s.TotalReserved += line.Reserved
	s.TotalShortage += line.Shortage
}

// FullyReserved reports whether every line was reserved in full
func (s *AllocationSummary) FullyReserved() bool {
	return s.TotalShortage == 0
}
