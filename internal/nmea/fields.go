package nmea

// fieldBuffer stores the comma-delimited fields of one sentence in a single
// preallocated block of maxFields*maxFieldSize bytes. Every write is bounds
// checked and reports false instead of growing.
type fieldBuffer struct {
	maxFields    int
	maxFieldSize int

	data []byte
	lens []int
	n    int // fields closed so far; the open field has index n
}

func newFieldBuffer(maxFields, maxFieldSize int) *fieldBuffer {
	return &fieldBuffer{
		maxFields:    maxFields,
		maxFieldSize: maxFieldSize,
		data:         make([]byte, maxFields*maxFieldSize),
		lens:         make([]int, maxFields),
	}
}

func (f *fieldBuffer) reset() {
	for i := range f.lens {
		f.lens[i] = 0
	}
	f.n = 0
}

// appendByte adds c to the open field.
func (f *fieldBuffer) appendByte(c byte) bool {
	if f.n >= f.maxFields || f.lens[f.n] >= f.maxFieldSize {
		return false
	}
	f.data[f.n*f.maxFieldSize+f.lens[f.n]] = c
	f.lens[f.n]++
	return true
}

// closeField ends the open field. It fails when no slot is left for it.
func (f *fieldBuffer) closeField() bool {
	if f.n >= f.maxFields {
		return false
	}
	f.n++
	return true
}

// full reports whether every field slot is closed.
func (f *fieldBuffer) full() bool { return f.n >= f.maxFields }

// count is the number of closed fields.
func (f *fieldBuffer) count() int { return f.n }

// field returns closed field i, or "" with ok=false past the last one.
func (f *fieldBuffer) field(i int) (string, bool) {
	if i < 0 || i >= f.n {
		return "", false
	}
	start := i * f.maxFieldSize
	return string(f.data[start : start+f.lens[i]]), true
}

// fields copies out every closed field.
func (f *fieldBuffer) fields() []string {
	out := make([]string, f.n)
	for i := range out {
		out[i], _ = f.field(i)
	}
	return out
}
