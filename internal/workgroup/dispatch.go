package workgroup

// Dispatcher walks a kernel's (dimX, dimY) thread-index space into
// THREADS-sized work-groups, each wgWidth threads wide along X and
// threads/wgWidth rows tall along Y, handing out the next pending
// work-group's offset to whichever cluster slot asks for one. A work-group's
// X extent is its configured width; its Y extent is whatever keeps its total
// thread count at THREADS, matching the original scheduler's nested walk
// (`x += 32 << wg_width`, `y += THREADS >> (wg_width + 5)`) once wgWidth and
// the Y stride are expressed directly in threads instead of its log2-32
// encoding.
type Dispatcher struct {
	dimX, dimY int
	wgWidth    int
	strideY    int

	nextX, nextY int
}

// NewDispatcher builds a dispatcher over a dimX x dimY kernel launch, handing
// out THREADS-thread work-groups wgWidth threads wide along X (and
// THREADS/wgWidth rows tall along Y). wgWidth must evenly divide both dimX
// and THREADS for the work-groups to tile the grid exactly; otherwise the
// last work-group along X (or Y) starts inside the grid and extends past
// its edge.
func NewDispatcher(dimX, dimY, wgWidth, threads int) *Dispatcher {
	strideY := threads / wgWidth
	if strideY < 1 {
		strideY = 1
	}
	return &Dispatcher{dimX: dimX, dimY: dimY, wgWidth: wgWidth, strideY: strideY}
}

// Done reports whether every work-group in the grid has been handed out.
func (d *Dispatcher) Done() bool {
	return d.nextY >= d.dimY
}

// Next returns the next pending work-group's offset and advances the
// cursor. The second return is false once the grid is exhausted.
func (d *Dispatcher) Next() (ID, bool) {
	if d.Done() {
		return ID{}, false
	}
	id := ID{OffX: d.nextX, OffY: d.nextY}

	d.nextX += d.wgWidth
	if d.nextX >= d.dimX {
		d.nextX = 0
		d.nextY += d.strideY
	}
	return id, true
}

// Fill assigns pending work-groups to every idle slot that can take one,
// returning the number of slots newly assigned. Call once per cycle after
// stepping every slot's Reset/Exit transitions.
func (d *Dispatcher) Fill(slots []*Slot) int {
	n := 0
	for _, s := range slots {
		if s.State() != Idle {
			continue
		}
		id, ok := d.Next()
		if !ok {
			break
		}
		if err := s.Assign(id); err != nil {
			continue
		}
		n++
	}
	return n
}
