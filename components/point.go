package components

// LabeledPoint is one point of a morph target: a position plus the
// semantic part it belongs to.
type LabeledPoint struct {
	Position Vec3
	PartID   int32
	PartName string
}
