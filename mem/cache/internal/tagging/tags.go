// Package tagging keeps the tag state of a set-associative cache.
package tagging

// TagArray holds the blocks of a set-associative cache.
type TagArray interface {
	Lookup(addr uint64) (Block, bool)
	Update(block Block)
	Visit(block Block)
	GetSet(addr uint64) (set *Set, setID int)
	NumSets() int
	NumWays() int
	TotalSize() uint64
	Reset()
}

// NewTagArray creates a tag array with every block invalid.
func NewTagArray(
	numSets int,
	numWays int,
	blockSize int,
) TagArray {
	t := &tagArrayImpl{
		numSets:   numSets,
		numWays:   numWays,
		blockSize: blockSize,
	}

	t.Reset()

	return t
}

// A Block of a cache is the information that is associated with a cache line
type Block struct {
	Tag     uint64
	WayID   int
	SetID   int
	IsValid bool
	IsDirty bool
	FillCPU int
}

// A Set is a list of blocks where a certain piece memory can be stored at.
// The LRUQueue lists the ways from least to most recently used.
type Set struct {
	Blocks   []Block
	LRUQueue []int
}

type tagArrayImpl struct {
	numSets   int
	numWays   int
	blockSize int
	sets      []Set
}

func (d *tagArrayImpl) NumSets() int {
	return d.numSets
}

func (d *tagArrayImpl) NumWays() int {
	return d.numWays
}

// TotalSize returns the maximum number of bytes can be stored in the cache
func (d *tagArrayImpl) TotalSize() uint64 {
	return uint64(d.numSets) * uint64(d.numWays) * uint64(d.blockSize)
}

// GetSet returns the set that a certain address should store at
func (d *tagArrayImpl) GetSet(addr uint64) (set *Set, setID int) {
	setID = int(addr / uint64(d.blockSize) % uint64(d.numSets))
	set = &d.sets[setID]

	return
}

// Lookup finds the valid block that holds addr.
func (d *tagArrayImpl) Lookup(addr uint64) (Block, bool) {
	tag := d.align(addr)

	set, _ := d.GetSet(addr)
	for _, block := range set.Blocks {
		if block.IsValid && block.Tag == tag {
			return block, true
		}
	}

	return Block{}, false
}

// Update updates the block information
func (d *tagArrayImpl) Update(block Block) {
	d.sets[block.SetID].Blocks[block.WayID] = block
}

// Visit moves the block to the end of the LRUQueue
func (d *tagArrayImpl) Visit(block Block) {
	set := &d.sets[block.SetID]
	newLRUQueue := make([]int, 0, len(set.LRUQueue))

	for _, b := range set.LRUQueue {
		if b != block.WayID {
			newLRUQueue = append(newLRUQueue, b)
		}
	}

	newLRUQueue = append(newLRUQueue, block.WayID)

	set.LRUQueue = newLRUQueue
}

// Reset will mark all the blocks in the directory invalid
func (d *tagArrayImpl) Reset() {
	d.sets = make([]Set, d.numSets)
	for i := 0; i < d.numSets; i++ {
		for j := 0; j < d.numWays; j++ {
			block := Block{
				IsValid: false,
				SetID:   i,
				WayID:   j,
			}

			d.sets[i].Blocks = append(d.sets[i].Blocks, block)
			d.sets[i].LRUQueue = append(d.sets[i].LRUQueue, j)
		}
	}
}

func (d *tagArrayImpl) align(addr uint64) uint64 {
	return addr / uint64(d.blockSize) * uint64(d.blockSize)
}
