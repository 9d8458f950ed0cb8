package pageindex

import (
	"github.com/google/btree"
)

// ScrollTolerance lets a system count as current while its top is at most
// this many pixels above the scroll position.
const ScrollTolerance = 25

type SystemEntry struct {
	TopOffset float64 `json:"topOffset"`
	ID        string  `json:"id"`
	Page      int     `json:"page"`
}

type entryOrdered struct {
	SystemEntry
	seq      int
	position int
}

type PageIndex struct {
	Btree   *btree.BTreeG[*entryOrdered]
	entries []SystemEntry
	byID    map[string]int
	current int
}

func lessEntry(a, b *entryOrdered) bool {
	if a.TopOffset != b.TopOffset {
		return a.TopOffset < b.TopOffset
	}
	return a.seq < b.seq
}

func New() *PageIndex {
	return &PageIndex{
		Btree:   btree.NewG(32, lessEntry),
		entries: []SystemEntry{},
		byID:    map[string]int{},
	}
}

// Rebuild throws the index away and builds it again from entries, which
// come in scan order. The current system is kept when still in range.
func (p *PageIndex) Rebuild(entries []SystemEntry) {
	p.Btree = btree.NewG(32, lessEntry)
	for i, e := range entries {
		p.Btree.ReplaceOrInsert(&entryOrdered{SystemEntry: e, seq: i})
	}

	p.entries = make([]SystemEntry, 0, len(entries))
	p.byID = make(map[string]int, len(entries))
	p.Btree.Ascend(func(item *entryOrdered) bool {
		item.position = len(p.entries)
		if _, exists := p.byID[item.ID]; !exists {
			p.byID[item.ID] = item.position
		}
		p.entries = append(p.entries, item.SystemEntry)
		return true
	})

	p.current = p.clamp(p.current)
}

// Entries returns the systems ordered by non-decreasing TopOffset.
func (p *PageIndex) Entries() []SystemEntry {
	return append([]SystemEntry(nil), p.entries...)
}

func (p *PageIndex) Total() int {
	return len(p.entries)
}

func (p *PageIndex) Current() int {
	return p.current
}

// SetCurrent moves the current system. It returns false if n is not a
// valid system.
func (p *PageIndex) SetCurrent(n int) bool {
	if n < 0 || n >= len(p.entries) {
		return false
	}
	p.current = n
	return true
}

// Scan makes current the first system whose top is not above scrollTop by
// more than ScrollTolerance, the last one if there is none.
func (p *PageIndex) Scan(scrollTop float64) int {
	if len(p.entries) == 0 {
		p.current = 0
		return p.current
	}

	found := len(p.entries) - 1
	pivot := &entryOrdered{
		SystemEntry: SystemEntry{TopOffset: scrollTop - ScrollTolerance},
		seq:         -1,
	}
	p.Btree.AscendGreaterOrEqual(pivot, func(item *entryOrdered) bool {
		found = item.position
		return false
	})

	p.current = found
	return p.current
}

// Lookup returns the position of the system with the given id.
func (p *PageIndex) Lookup(id string) (int, bool) {
	n, exists := p.byID[id]
	return n, exists
}

func (p *PageIndex) Offset(n int) (float64, bool) {
	if n < 0 || n >= len(p.entries) {
		return 0, false
	}
	return p.entries[n].TopOffset, true
}

// FirstOfPage returns the position of the first system of a page.
func (p *PageIndex) FirstOfPage(page int) (int, bool) {
	for i, e := range p.entries {
		if e.Page == page {
			return i, true
		}
	}
	return 0, false
}

func (p *PageIndex) clamp(n int) int {
	if len(p.entries) == 0 || n < 0 {
		return 0
	}
	if n >= len(p.entries) {
		return len(p.entries) - 1
	}
	return n
}
