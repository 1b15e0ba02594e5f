package domain

import "path/filepath"

// PathSet is the ordered module search path of the session. Entries are
// unique; earlier entries shadow later ones.
type PathSet struct {
	entries []string
}

func NewPathSet(entries ...string) *PathSet {
	p := &PathSet{}
	for _, entry := range entries {
		p.Append(entry)
	}

	return p
}

// Prepend puts entry in front of every existing entry. It reports false and
// leaves the order untouched when entry is already present.
func (p *PathSet) Prepend(entry string) bool {
	entry = filepath.Clean(entry)
	if p.Contains(entry) {
		return false
	}

	p.entries = append([]string{entry}, p.entries...)
	return true
}

func (p *PathSet) Append(entry string) bool {
	entry = filepath.Clean(entry)
	if p.Contains(entry) {
		return false
	}

	p.entries = append(p.entries, entry)
	return true
}

func (p *PathSet) Remove(entry string) bool {
	entry = filepath.Clean(entry)
	for i, existing := range p.entries {
		if existing == entry {
			p.entries = append(p.entries[:i:i], p.entries[i+1:]...)
			return true
		}
	}

	return false
}

func (p *PathSet) Contains(entry string) bool {
	entry = filepath.Clean(entry)
	for _, existing := range p.entries {
		if existing == entry {
			return true
		}
	}

	return false
}

// Entries returns a copy of the path in search order.
func (p *PathSet) Entries() []string {
	return append([]string(nil), p.entries...)
}

func (p *PathSet) Len() int {
	return len(p.entries)
}
