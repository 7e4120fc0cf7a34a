package dton

var (
	PickWidth = pickWidth
	GetUint   = getUint
)
