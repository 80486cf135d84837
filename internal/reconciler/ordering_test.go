package reconciler

import (
	"testing"

	"stallpick-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func names(stalls []*entity.Stall) []string {
	out := make([]string, 0, len(stalls))
	for _, s := range stalls {
		out = append(out, s.Name)
	}
	return out
}

func TestOrderForEater(t *testing.T) {
	f := newFixture()
	ordered := OrderForEater(f.stalls(), map[uuid.UUID]bool{f.c.Id: true, f.b.Id: true})

	assert.Equal(t, []string{"Ah Tai", "Zhen Zhen", "Tian Tian"}, names(ordered))
	assert.Equal(t, []string{"Tian Tian", "Ah Tai", "Zhen Zhen"}, names(f.stalls()), "input is left alone")
}

func TestFilter(t *testing.T) {
	f := newFixture()

	assert.Equal(t, []string{"Tian Tian"}, names(Filter(f.stalls(), "tian")))
	assert.Equal(t, []string{"Zhen Zhen"}, names(Filter(f.stalls(), " ZHEN ")))
	assert.Len(t, Filter(f.stalls(), ""), 3)
	assert.Empty(t, Filter(f.stalls(), "laksa"))
}

func TestOpenCount(t *testing.T) {
	f := newFixture()
	v := f.seeded(f.avail(f.a, true, 1), f.avail(f.b, false, 1))

	open, total := OpenCount(v)
	assert.Equal(t, 1, open)
	assert.Equal(t, 3, total)
}

func TestPeerPath(t *testing.T) {
	assert.Equal(t, "/eater/abc", PeerPath("/buyer/abc", RoleBuyer))
	assert.Equal(t, "/buyer/abc", PeerPath("/eater/abc", RoleEater))
	assert.Equal(t, "/somewhere", PeerPath("/somewhere", RoleBuyer))
	assert.Equal(t, RoleBuyer, RoleEater.Peer())
}
