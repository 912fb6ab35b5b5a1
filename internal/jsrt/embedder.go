package jsrt

import "fmt"

// EmbedderDataSlots is the number of host data slots per context
const EmbedderDataSlots = 32

// SetEmbedderData stores an opaque host value in slot index.
// An index outside [0, EmbedderDataSlots) panics.
func (c *Context) SetEmbedderData(index int, value any) {
	checkEmbedderIndex(index)
	c.embedderData[index] = value
}

// EmbedderData returns the host value in slot index, or nil
func (c *Context) EmbedderData(index int) any {
	checkEmbedderIndex(index)
	return c.embedderData[index]
}

func checkEmbedderIndex(index int) {
	if index < 0 || index >= EmbedderDataSlots {
		panic(fmt.Sprintf("jsrt: embedder data index %d out of range [0, %d)", index, EmbedderDataSlots))
	}
}
