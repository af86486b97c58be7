package director

import "github.com/zeusync/playscript/internal/core/command/param"

// sideX is the x of a side slot. Center and unknown slots sit at 0.
func (c *Controller) sideX(slot string) float64 {
	switch slot {
	case SlotLeft:
		return c.layout.SideLeft
	case SlotRight:
		return c.layout.SideRight
	default:
		return 0
	}
}

// particular resolves a slot pair plus slide counts to stage coordinates.
func (c *Controller) particular(h param.Enum, hSlide int, v param.Enum, vSlide int) param.Vector2 {
	var x float64
	switch h.Name {
	case SlotRight:
		x = c.layout.SideRight
	case SlotCenter:
		x = 0
	default:
		x = c.layout.SideLeft
	}
	y := c.layout.Ground
	if v.Name == SlotCenter {
		y = 0
	}
	return param.Vector2{
		X: x + c.layout.SideSlideX*float64(hSlide),
		Y: y + c.layout.SideSlideY*float64(vSlide),
	}
}

// bringToFront gives name the highest sort order. Everyone drawn in front of
// it moves back by one; the rest keep their place.
func (c *Controller) bringToFront(name string) error {
	target, err := c.stage.Cast.SortOrder(name)
	if err != nil {
		return err
	}
	names := c.stage.Cast.Names()
	front := len(names) - 1
	if target == front {
		return nil
	}
	for _, other := range names {
		order, err := c.stage.Cast.SortOrder(other)
		if err != nil {
			return err
		}
		if order > target {
			if err := c.stage.Cast.SetSortOrder(other, order-1); err != nil {
				return err
			}
		}
	}
	return c.stage.Cast.SetSortOrder(name, front)
}
