package pageindex

import (
	"sort"
	"testing"

	"github.com/fulldump/biff"
)

func TestPageIndex(t *testing.T) {

	biff.Alternative("Page index", func(a *biff.A) {

		p := New()

		a.Alternative("Empty", func(a *biff.A) {
			biff.AssertEqual(p.Total(), 0)
			biff.AssertEqual(p.Scan(500), 0)
			biff.AssertFalse(p.SetCurrent(0))
		})

		a.Alternative("Rebuild sorts by offset", func(a *biff.A) {
			p.Rebuild([]SystemEntry{
				{TopOffset: 900, ID: "s3", Page: 2},
				{TopOffset: 10, ID: "s1", Page: 0},
				{TopOffset: 450, ID: "s2", Page: 1},
				{TopOffset: 450, ID: "s2b", Page: 1},
			})

			entries := p.Entries()
			biff.AssertEqual(p.Total(), len(entries))
			biff.AssertTrue(sort.SliceIsSorted(entries, func(i, j int) bool {
				return entries[i].TopOffset < entries[j].TopOffset
			}))
			biff.AssertEqual(entries[1].ID, "s2")
			biff.AssertEqual(entries[2].ID, "s2b")

			a.Alternative("Scan", func(a *biff.A) {
				biff.AssertEqual(p.Scan(0), 0)
				biff.AssertEqual(p.Scan(35), 0)
				biff.AssertEqual(p.Scan(36), 1)
				biff.AssertEqual(p.Scan(475), 1)
				biff.AssertEqual(p.Scan(476), 3)
				biff.AssertEqual(p.Scan(5000), 3)
				biff.AssertEqual(p.Current(), 3)
			})

			a.Alternative("Lookup", func(a *biff.A) {
				n, found := p.Lookup("s3")
				biff.AssertTrue(found)
				biff.AssertEqual(n, 3)

				offset, found := p.Offset(n)
				biff.AssertTrue(found)
				biff.AssertEqual(offset, float64(900))

				first, found := p.FirstOfPage(1)
				biff.AssertTrue(found)
				biff.AssertEqual(first, 1)
			})

			a.Alternative("Current is clamped on shrink", func(a *biff.A) {
				biff.AssertTrue(p.SetCurrent(3))
				p.Rebuild([]SystemEntry{{TopOffset: 0, ID: "only"}})
				biff.AssertEqual(p.Current(), 0)
				biff.AssertEqual(p.Total(), 1)
			})
		})
	})
}
