package domain

// Availability is a resource together with its free units for some window.
type Availability struct {
	Resource   *Resource
	FreeUnits  int
	TotalUnits int
}

// LineItem is one requested resource of a draft reservation.
// Products carry a zero Window.
type LineItem struct {
	Resource *Resource
	Window   Interval
	Quantity int
}

func (l LineItem) Ref() ResourceRef {
	return l.Resource.Ref()
}
