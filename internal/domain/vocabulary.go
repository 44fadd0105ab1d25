package domain

const (
	CommandSetBackground = "set_background"
	CommandDrawRect      = "draw_rect"
	CommandFillRect      = "fill_rect"
	CommandDrawCircle    = "draw_circle"
	CommandFillCircle    = "fill_circle"
	CommandDrawEllipse   = "draw_ellipse"
	CommandFillEllipse   = "fill_ellipse"
	CommandDrawLine      = "draw_line"
	CommandDrawTriangle  = "draw_triangle"
	CommandFillTriangle  = "fill_triangle"
)

type ShapeFamily string

const (
	FamilyBackground ShapeFamily = "background"
	FamilyRect       ShapeFamily = "rect"
	FamilyCircle     ShapeFamily = "circle"
	FamilyEllipse    ShapeFamily = "ellipse"
	FamilyLine       ShapeFamily = "line"
	FamilyTriangle   ShapeFamily = "triangle"
)

type CommandSpec struct {
	Name   string
	Family ShapeFamily
	Filled bool
	Params []string
}

var vocabulary = map[string]CommandSpec{
	CommandSetBackground: {Name: CommandSetBackground, Family: FamilyBackground, Filled: true, Params: []string{"color"}},
	CommandDrawRect:      {Name: CommandDrawRect, Family: FamilyRect, Params: []string{"x", "y", "w", "h", "color"}},
	CommandFillRect:      {Name: CommandFillRect, Family: FamilyRect, Filled: true, Params: []string{"x", "y", "w", "h", "color"}},
	CommandDrawCircle:    {Name: CommandDrawCircle, Family: FamilyCircle, Params: []string{"x", "y", "radius", "color"}},
	CommandFillCircle:    {Name: CommandFillCircle, Family: FamilyCircle, Filled: true, Params: []string{"x", "y", "radius", "color"}},
	CommandDrawEllipse:   {Name: CommandDrawEllipse, Family: FamilyEllipse, Params: []string{"x", "y", "w", "h", "color"}},
	CommandFillEllipse:   {Name: CommandFillEllipse, Family: FamilyEllipse, Filled: true, Params: []string{"x", "y", "w", "h", "color"}},
	CommandDrawLine:      {Name: CommandDrawLine, Family: FamilyLine, Params: []string{"x1", "y1", "x2", "y2", "color", "width"}},
	CommandDrawTriangle:  {Name: CommandDrawTriangle, Family: FamilyTriangle, Params: []string{"x1", "y1", "x2", "y2", "x3", "y3", "color"}},
	CommandFillTriangle:  {Name: CommandFillTriangle, Family: FamilyTriangle, Filled: true, Params: []string{"x1", "y1", "x2", "y2", "x3", "y3", "color"}},
}

func LookupCommand(name string) (CommandSpec, bool) {
	spec, ok := vocabulary[name]
	return spec, ok
}

func IsKnownCommand(name string) bool {
	_, ok := vocabulary[name]
	return ok
}
