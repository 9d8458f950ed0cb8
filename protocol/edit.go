package protocol

const ActionDrag = "drag"

// EditAction is a structured edit intent forwarded to the engine as is.
type EditAction struct {
	Action string `json:"action"`
	Target string `json:"target"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

func Drag(target string, x, y int) EditAction {
	return EditAction{
		Action: ActionDrag,
		Target: target,
		X:      x,
		Y:      y,
	}
}
