package tape

// FilterSizes are the selectable minimum trade sizes in BTC, ascending.
var FilterSizes = [...]float64{0.0001, 0.001, 0.01, 0.1, 1}

// Filter is a clamped index into FilterSizes. The zero value selects the
// smallest size.
type Filter struct {
	index int
}

func (f *Filter) Increase() {
	if f.index < len(FilterSizes)-1 {
		f.index++
	}
}

func (f *Filter) Decrease() {
	if f.index > 0 {
		f.index--
	}
}

func (f *Filter) Index() int {
	return f.index
}

func (f *Filter) Current() float64 {
	return FilterSizes[f.index]
}

// Admits is inclusive: a size equal to the threshold passes.
func (f *Filter) Admits(size float64) bool {
	return size >= f.Current()
}
