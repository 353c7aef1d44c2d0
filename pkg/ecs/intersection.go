package ecs

import "slices"

// sink collects the matches of one type during an intersection. truncate undoes appends made for
// an owner whose later probes failed.
type sink interface {
	source() abstractBucket
	size() int
	push(row int)
	truncate(n int)
}

type recordSink[T any, PT Record[T]] struct {
	b   *bucket[T, PT]
	out *[]*T
}

func newRecordSink[T any, PT Record[T]](c *Container, out *[]*T) *recordSink[T, PT] {
	return &recordSink[T, PT]{b: bucketOf[T, PT](c, infoOf[T, PT]()), out: out}
}

func (s *recordSink[T, PT]) source() abstractBucket { return s.b }
func (s *recordSink[T, PT]) size() int { return len(*s.out) }
func (s *recordSink[T, PT]) push(row int) { *s.out = append(*s.out, (*T)(s.b.at(row))) }
func (s *recordSink[T, PT]) truncate(n int) { *s.out = (*s.out)[:n] }

// intersect scans the head bucket in owner order and binary searches every tail bucket for each
// owner. Matches are appended to the sinks so that entry i of every output belongs to the same
// entity. Nothing is appended if any bucket is unallocated.
func intersect(head sink, tails ...sink) {
	hb := head.source()
	if !hb.allocated() {
		return
	}
	for _, tail := range tails {
		if !tail.source().allocated() {
			return
		}
	}

	marks := make([]int, len(tails))
	for row := range hb.len() {
		owner := hb.ownerAt(row)
		if probe(owner, tails, marks) {
			head.push(row)
		}
	}
}

// probe appends owner's record from every tail, or none of them if any tail lacks the owner.
func probe(owner Entity, tails []sink, marks []int) bool {
	for i, tail := range tails {
		marks[i] = tail.size()
		row, ok := tail.source().find(owner)
		if !ok {
			for j := range i {
				tails[j].truncate(marks[j])
			}
			return false
		}
		tail.push(row)
	}
	return true
}

// Intersection2 appends to a and b the components of every entity that has both an A and a B.
// The outputs stay index-aligned: (*a)[i] and (*b)[i] share an owner. The returned pointers have
// the same lifetime as those of GetComponent.
func Intersection2[A, B any, PA Record[A], PB Record[B]](c *Container, a *[]*A, b *[]*B) {
	c.checkOpen()
	intersect(newRecordSink[A, PA](c, a), newRecordSink[B, PB](c, b))
}

// Intersection3 is Intersection2 over three component types.
func Intersection3[A, B, C any, PA Record[A], PB Record[B], PC Record[C]](
	c *Container, a *[]*A, b *[]*B, cc *[]*C,
) {
	c.checkOpen()
	intersect(newRecordSink[A, PA](c, a), newRecordSink[B, PB](c, b), newRecordSink[C, PC](c, cc))
}

// Intersection4 is Intersection2 over four component types.
func Intersection4[A, B, C, D any, PA Record[A], PB Record[B], PC Record[C], PD Record[D]](
	c *Container, a *[]*A, b *[]*B, cc *[]*C, d *[]*D,
) {
	c.checkOpen()
	intersect(
		newRecordSink[A, PA](c, a),
		newRecordSink[B, PB](c, b),
		newRecordSink[C, PC](c, cc),
		newRecordSink[D, PD](c, d),
	)
}

// entitySink collects owners instead of records.
type entitySink struct {
	b   abstractBucket
	out *[]Entity
}

func (s *entitySink) source() abstractBucket { return s.b }
func (s *entitySink) size() int { return len(*s.out) }
func (s *entitySink) push(row int) { *s.out = append(*s.out, s.b.ownerAt(row)) }
func (s *entitySink) truncate(n int) { *s.out = (*s.out)[:n] }

// discardSink only probes.
type discardSink struct{ b abstractBucket }

func (s discardSink) source() abstractBucket { return s.b }
func (discardSink) size() int { return 0 }
func (discardSink) push(int) {}
func (discardSink) truncate(int) {}

// IntersectionEntities returns, in ascending order, the entities that own a component of every
// given type. Types the container hasn't seen yet yield no entities.
func IntersectionEntities(c *Container, ids ...TypeID) []Entity {
	c.checkOpen()

	var out []Entity
	if len(ids) == 0 {
		return out
	}

	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	buckets := make([]abstractBucket, len(ids))
	for i, id := range ids {
		if int(id) >= len(c.buckets) || c.buckets[id] == nil {
			return out
		}
		buckets[i] = c.buckets[id]
	}

	tails := make([]sink, 0, len(buckets)-1)
	for _, b := range buckets[1:] {
		tails = append(tails, discardSink{b: b})
	}
	intersect(&entitySink{b: buckets[0], out: &out}, tails...)
	return out
}
