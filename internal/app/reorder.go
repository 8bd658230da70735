package app

import "lesson-editor-service/internal/domain"

// RowGeometry is the vertical bounding box of a rendered row, in the same
// coordinate space as the pointer position the client reports.
type RowGeometry struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// DragReorder turns a continuous drag gesture into discrete MoveTo calls.
//
// A move commits only once the pointer crosses the hovered row's vertical
// midpoint in the drag direction: below it when dragging down, above it when
// dragging up. Hovering near a row boundary therefore cannot make two rows
// swap back and forth. Each committed move is applied immediately; dropping
// or cancelling the gesture adds no further mutation.
type DragReorder struct {
	session   *Session
	dragIndex int
	active    bool
}

// StartDrag begins a gesture on the item currently at index.
func (s *Session) StartDrag(index int) (*DragReorder, error) {
	if index < 0 || index >= s.Len() {
		return nil, domain.ErrInvalidIndex
	}
	return &DragReorder{session: s, dragIndex: index, active: true}, nil
}

// Hover processes a pointer position over the row at hoverIndex. It reports
// whether a move was committed.
func (d *DragReorder) Hover(hoverIndex int, row RowGeometry, pointerY float64) (bool, error) {
	if !d.active {
		return false, nil
	}
	if hoverIndex < 0 || hoverIndex >= d.session.Len() {
		return false, domain.ErrInvalidIndex
	}
	if hoverIndex == d.dragIndex {
		return false, nil
	}

	midpoint := row.Top + row.Height/2
	if d.dragIndex < hoverIndex && pointerY <= midpoint {
		return false, nil
	}
	if d.dragIndex > hoverIndex && pointerY >= midpoint {
		return false, nil
	}

	if err := d.session.MoveTo(d.dragIndex, hoverIndex); err != nil {
		return false, err
	}
	// Subsequent crossings compare against the item's new position.
	d.dragIndex = hoverIndex
	return true, nil
}

// Drop finalizes the gesture and returns the item's final index.
func (d *DragReorder) Drop() int {
	d.active = false
	return d.dragIndex
}

// Cancel abandons the gesture. Moves already committed stay applied;
// reordering is not transactional.
func (d *DragReorder) Cancel() {
	d.active = false
}

// Index returns the dragged item's current position.
func (d *DragReorder) Index() int {
	return d.dragIndex
}
