// Package assets holds what resources need outside the resource system
// itself: the offscreen container for their elements, the opener that
// turns a locator into bytes and the watcher that reports source changes.
package assets

import (
	"sort"

	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/resources"
)

// Container is the offscreen parent of every loading or loaded element.
// Elements are never drawn from here; draw calls copy from them. It is
// only touched on the execution context.
type Container struct {
	elements map[string]*resources.Element
}

func NewContainer() *Container {
	return &Container{elements: make(map[string]*resources.Element)}
}

// Add places el under its id, releasing any element it replaces.
func (c *Container) Add(el *resources.Element) {
	if old, ok := c.elements[el.ID]; ok && old != el {
		c.release(old)
	}
	c.elements[el.ID] = el
}

func (c *Container) Get(id string) *resources.Element {
	return c.elements[id]
}

// Remove releases and drops the element with the given id.
func (c *Container) Remove(id string) bool {
	el, ok := c.elements[id]
	if !ok {
		return false
	}
	delete(c.elements, id)
	c.release(el)
	return true
}

func (c *Container) Len() int {
	return len(c.elements)
}

// IDs lists the held elements in order.
func (c *Container) IDs() []string {
	ids := make([]string, 0, len(c.elements))
	for id := range c.elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Container) Clear() {
	for id, el := range c.elements {
		delete(c.elements, id)
		c.release(el)
	}
}

func (c *Container) release(el *resources.Element) {
	if err := el.Release(); err != nil {
		core.LogWarn("releasing element %s: %s", el.ID, err)
	}
}
