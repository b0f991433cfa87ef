package feature

import "fmt"

// Calendar is a feature computed directly from the calendar date: date
// parts, day-type flags, month-position flags, and holiday flags.
type Calendar struct {
	Name string
}

func NewCalendar(name string) Calendar {
	return Calendar{name}
}

func (c Calendar) String() string {
	return c.Name
}

func (c Calendar) Type() Type {
	return TypeCalendar
}

type CyclicalComp string

const (
	CyclicalCompSin CyclicalComp = "sin"
	CyclicalCompCos CyclicalComp = "cos"
)

// Cyclical is a sine or cosine encoding of a periodic calendar field, e.g.
// day of week scaled to a period of 7.
type Cyclical struct {
	Name string
	Comp CyclicalComp
}

func NewCyclical(name string, comp CyclicalComp) Cyclical {
	return Cyclical{name, comp}
}

func (c Cyclical) String() string {
	return fmt.Sprintf("%s_%s", c.Name, c.Comp)
}

func (c Cyclical) Type() Type {
	return TypeCyclical
}
