package component

type Star struct {
	Index int
}

var StarComponent = NewComponent[Star]("star")

// Exit appears once every star is collected.
type Exit struct {
	OpenedAt int
}

var ExitComponent = NewComponent[Exit]("exit")

// EventBox speeds up every pursuer for HasteTicks once the player opens it.
type EventBox struct {
	HasteTicks int
}

var EventBoxComponent = NewComponent[EventBox]("event_box")
