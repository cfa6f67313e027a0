package cdtext

import (
	"sort"

	"github.com/bgrewell/cdr-kit/pkg/consts"
)

// Container holds the CD-TEXT items of the disc or of one track, at most one item per pack type and
// language block. The disc level container also records the language code of each block.
type Container struct {
	items     map[int]map[PackType]*Item
	languages [consts.CDTEXT_MAX_BLOCKS]int
}

func NewContainer() *Container {
	c := &Container{items: map[int]map[PackType]*Item{}}
	for i := range c.languages {
		c.languages[i] = -1
	}
	return c
}

// Add stores a copy of item, replacing an existing item of the same type and block. Items with a
// block outside 0-7 are ignored.
func (c *Container) Add(item *Item) {
	if item == nil || item.Block < 0 || item.Block >= consts.CDTEXT_MAX_BLOCKS {
		return
	}
	block, ok := c.items[item.Block]
	if !ok {
		block = map[PackType]*Item{}
		c.items[item.Block] = block
	}
	block[item.Type] = item.Clone()
}

func (c *Container) Remove(t PackType, block int) {
	if items, ok := c.items[block]; ok {
		delete(items, t)
		if len(items) == 0 {
			delete(c.items, block)
		}
	}
}

// Get returns the item of the given block and type or nil.
func (c *Container) Get(block int, t PackType) *Item {
	if c == nil {
		return nil
	}
	return c.items[block][t]
}

// ExistBlock reports whether any item is defined for the block.
func (c *Container) ExistBlock(block int) bool {
	if c == nil {
		return false
	}
	return len(c.items[block]) > 0
}

// Language returns the language code of a block or -1 when none is assigned.
func (c *Container) Language(block int) int {
	if c == nil || block < 0 || block >= consts.CDTEXT_MAX_BLOCKS {
		return -1
	}
	return c.languages[block]
}

// SetLanguage assigns a language code to a block; a negative code clears it.
func (c *Container) SetLanguage(block, lang int) {
	if block < 0 || block >= consts.CDTEXT_MAX_BLOCKS {
		return
	}
	if lang < 0 {
		lang = -1
	}
	c.languages[block] = lang
}

// Len returns the number of items.
func (c *Container) Len() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, items := range c.items {
		n += len(items)
	}
	return n
}

// Items returns all items ordered by block and pack type.
func (c *Container) Items() []*Item {
	if c == nil {
		return nil
	}
	var out []*Item
	for _, items := range c.items {
		for _, it := range items {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Block != out[j].Block {
			return out[i].Block < out[j].Block
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// BlockItems returns the items of one block ordered by pack type.
func (c *Container) BlockItems(block int) []*Item {
	var out []*Item
	for _, it := range c.Items() {
		if it.Block == block {
			out = append(out, it)
		}
	}
	return out
}

func (c *Container) Clone() *Container {
	n := NewContainer()
	if c == nil {
		return n
	}
	n.languages = c.languages
	for _, it := range c.Items() {
		n.Add(it)
	}
	return n
}
