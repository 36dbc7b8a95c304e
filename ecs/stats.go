package ecs

import "sort"

// StorageStats is a point-in-time summary of the store.
type StorageStats struct {
	EntityCount    int
	ComponentCount int
	KindCount      int
	KindBreakdown  []KindStats
}

// KindStats describes one component kind.
type KindStats struct {
	Kind           Kind
	EntityCount    int
	ComponentCount int
}

// CollectStats walks the kind index and summarizes the store. Kinds are
// sorted by name.
func (s *Storage) CollectStats() *StorageStats {
	stats := &StorageStats{
		EntityCount: s.entities.Len(),
	}

	s.kinds.postings.ForEach(func(_ KindId, posting *kindPosting) bool {
		ks := KindStats{
			Kind:        posting.kind,
			EntityCount: posting.entities.Len(),
		}
		posting.entities.ForEach(func(_ EntityId, count uint32) bool {
			ks.ComponentCount += int(count)
			return true
		})
		stats.ComponentCount += ks.ComponentCount
		stats.KindBreakdown = append(stats.KindBreakdown, ks)
		return true
	})

	sort.Slice(stats.KindBreakdown, func(i, j int) bool {
		return stats.KindBreakdown[i].Kind < stats.KindBreakdown[j].Kind
	})
	stats.KindCount = len(stats.KindBreakdown)

	return stats
}
