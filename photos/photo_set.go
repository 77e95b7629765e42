package photos

// PhotoSet is an ordered list of photo URLs and the index of the one on screen.
// Index is valid whenever the set is non-empty.
type PhotoSet struct {
	URLs  []string `json:"urls"`
	Index int      `json:"index"`
}

func NewPhotoSet(urls []string) PhotoSet {
	return PhotoSet{URLs: append([]string(nil), urls...)}
}

func (p PhotoSet) Len() int {
	return len(p.URLs)
}

// Current returns the photo at Index, or false for an empty set
func (p PhotoSet) Current() (string, bool) {
	if len(p.URLs) == 0 {
		return "", false
	}
	return p.URLs[p.Index], true
}

// Step moves the index by direction modulo the set length. An empty set is returned unchanged.
func (p PhotoSet) Step(direction int) PhotoSet {
	n := len(p.URLs)
	if n == 0 {
		return p
	}
	p.Index = ((p.Index+direction)%n + n) % n
	return p
}

func (p PhotoSet) normalized() PhotoSet {
	if len(p.URLs) == 0 {
		p.Index = 0
		return p
	}
	return p.Step(0)
}
