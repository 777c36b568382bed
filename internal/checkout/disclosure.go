package checkout

// Section is one of the ordered checkout form sections.
type Section int

// Checkout sections, in disclosure order.
const (
	SectionAddress Section = iota
	SectionShipping
	SectionPayment
	SectionReview
)

// Disclosure gates section visibility in strict linear order. The unlock
// watermark only ever moves forward: once a later section has been reached,
// re-editing an earlier one never hides it again.
type Disclosure struct {
	watermark Section
}

// Unlock raises the watermark to at least the given section.
func (d *Disclosure) Unlock(section Section) {
	if section > d.watermark {
		d.watermark = section
	}
}

// Visible reports whether a section is shown and enabled.
func (d *Disclosure) Visible(section Section) bool {
	return section <= d.watermark
}

// Watermark returns the furthest unlocked section.
func (d *Disclosure) Watermark() Section {
	return d.watermark
}
