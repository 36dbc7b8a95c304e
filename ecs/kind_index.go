package ecs

import (
	"github.com/kamstrup/intmap"
)

// kindPosting holds, for one kind, how many components of that kind each
// entity carries. Counts let duplicate kinds on one entity be removed safely.
type kindPosting struct {
	kind     Kind
	entities *intmap.Map[EntityId, uint32]
}

// kindIndex maps hashed kinds to the entities holding them.
type kindIndex struct {
	postings *intmap.Map[KindId, *kindPosting]
}

func newKindIndex() *kindIndex {
	return &kindIndex{
		postings: intmap.New[KindId, *kindPosting](64),
	}
}

func (ix *kindIndex) add(id EntityId, kinds []Kind) {
	for _, kind := range kinds {
		kid := kind.Id()

		posting, ok := ix.postings.Get(kid)
		if !ok {
			posting = &kindPosting{
				kind:     kind,
				entities: intmap.New[EntityId, uint32](16),
			}
			ix.postings.Put(kid, posting)
		}

		count, _ := posting.entities.Get(id)
		posting.entities.Put(id, count+1)
	}
}

func (ix *kindIndex) remove(id EntityId, kinds []Kind) {
	for _, kind := range kinds {
		kid := kind.Id()

		posting, ok := ix.postings.Get(kid)
		if !ok {
			continue
		}

		count, ok := posting.entities.Get(id)
		if !ok {
			continue
		}
		if count > 1 {
			posting.entities.Put(id, count-1)
			continue
		}

		posting.entities.Del(id)
		if posting.entities.Len() == 0 {
			ix.postings.Del(kid)
		}
	}
}

// candidates returns the union of entities holding any kind in q. Hash
// collisions can add false positives; callers verify against the recorded kinds.
func (ix *kindIndex) candidates(q Query) *intmap.Map[EntityId, struct{}] {
	out := intmap.New[EntityId, struct{}](16)
	for _, kind := range q.kinds {
		posting, ok := ix.postings.Get(kind.Id())
		if !ok {
			continue
		}
		posting.entities.ForEach(func(id EntityId, _ uint32) bool {
			out.Put(id, struct{}{})
			return true
		})
	}
	return out
}
