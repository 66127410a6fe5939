package component

// Flags holds named boolean switches on an object (e.g. "on", "light").
type Flags struct {
	Values map[string]bool
}

func (f *Flags) Get(name string) bool {
	if f == nil || f.Values == nil {
		return false
	}
	return f.Values[name]
}

func (f *Flags) Set(name string, v bool) {
	if f.Values == nil {
		f.Values = make(map[string]bool)
	}
	f.Values[name] = v
}

var FlagsComponent = NewComponent[Flags]()
