package reconciler

import (
	"sort"
	"strings"

	"stallpick-be/internal/entity"

	"github.com/google/uuid"
)

// OrderForEater lists open stalls first, each group by sort order.
func OrderForEater(stalls []*entity.Stall, availability map[uuid.UUID]bool) []*entity.Stall {
	out := append([]*entity.Stall(nil), stalls...)
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := availability[out[i].Id], availability[out[j].Id]
		if oi != oj {
			return oi
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out
}

// Filter keeps stalls whose name contains term, ignoring case.
func Filter(stalls []*entity.Stall, term string) []*entity.Stall {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return stalls
	}
	out := make([]*entity.Stall, 0, len(stalls))
	for _, s := range stalls {
		if strings.Contains(strings.ToLower(s.Name), term) {
			out = append(out, s)
		}
	}
	return out
}

func OpenCount(v View) (open, total int) {
	for _, s := range v.Stalls {
		if v.Availability[s.Id] {
			open++
		}
	}
	return open, len(v.Stalls)
}

// PeerPath swaps the role segment of a share path, e.g. /buyer/abc to
// /eater/abc. Paths without the segment are returned unchanged.
func PeerPath(currentPath string, role Role) string {
	return strings.Replace(currentPath, "/"+string(role)+"/", "/"+string(role.Peer())+"/", 1)
}
