package vdom

// A Hook is attached to an element by a helper attribute.
//
// OnAttach is called when the element carrying the hook is created or when
// the hook first appears on it. OnUpdate is called when the attribute value
// changes and OnDetach when the hook or its element goes away.
type Hook interface {
	OnAttach(el *Element, value string)
	OnUpdate(el *Element, value string)
	OnDetach(el *Element)
}

// A HookValue binds a Hook to the evaluated attribute value.
type HookValue struct {
	Hook  Hook
	Value string
}

// HookFuncs adapts plain functions to a Hook. Nil fields are skipped.
type HookFuncs struct {
	Attach func(el *Element, value string)
	Update func(el *Element, value string)
	Detach func(el *Element)
}

func (h *HookFuncs) OnAttach(el *Element, value string) {
	if h.Attach != nil {
		h.Attach(el, value)
	}
}

func (h *HookFuncs) OnUpdate(el *Element, value string) {
	if h.Update != nil {
		h.Update(el, value)
	}
}

func (h *HookFuncs) OnDetach(el *Element) {
	if h.Detach != nil {
		h.Detach(el)
	}
}
