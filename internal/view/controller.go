package view

// Controller holds the selected grid view. Changes arrive as view-change
// notifications from the grid; listeners run synchronously after each one.
type Controller struct {
	current   View
	listeners []func(View)
}

func NewController(initial View) *Controller {
	return &Controller{current: initial}
}

// View returns the current selection.
func (c *Controller) View() View {
	return c.current
}

// SetView replaces the selection unconditionally and notifies listeners.
func (c *Controller) SetView(v View) {
	c.current = v
	for _, fn := range c.listeners {
		fn(v)
	}
}

// OnChange registers fn to be called after every SetView.
func (c *Controller) OnChange(fn func(View)) {
	if fn == nil {
		return
	}
	c.listeners = append(c.listeners, fn)
}
