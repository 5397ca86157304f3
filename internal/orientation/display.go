package orientation

// DisplayOrientation is the orientation enumeration used by host image
// frameworks, named after where the top of the image ends up. Its numbering is
// not the EXIF numbering; convert at the boundary with Code.DisplayOrientation
// and FromDisplayOrientation.
type DisplayOrientation int

const (
	DisplayUp DisplayOrientation = iota
	DisplayDown
	DisplayLeft
	DisplayRight
	DisplayUpMirrored
	DisplayDownMirrored
	DisplayLeftMirrored
	DisplayRightMirrored
)

var codeToDisplay = map[Code]DisplayOrientation{
	Normal:           DisplayUp,
	MirrorHorizontal: DisplayUpMirrored,
	Rotate180:        DisplayDown,
	MirrorVertical:   DisplayDownMirrored,
	Transpose:        DisplayLeftMirrored,
	Rotate90:         DisplayRight,
	Transverse:       DisplayRightMirrored,
	Rotate270:        DisplayLeft,
}

// DisplayOrientation converts c to the host framework enumeration.
func (c Code) DisplayOrientation() DisplayOrientation {
	if d, ok := codeToDisplay[c]; ok {
		return d
	}
	return DisplayUp
}

// FromDisplayOrientation converts a host framework orientation to a Code.
// Unrecognized values map to Normal.
func FromDisplayOrientation(d DisplayOrientation) Code {
	for c, v := range codeToDisplay {
		if v == d {
			return c
		}
	}
	return Normal
}

func (d DisplayOrientation) String() string {
	switch d {
	case DisplayUp:
		return "up"
	case DisplayDown:
		return "down"
	case DisplayLeft:
		return "left"
	case DisplayRight:
		return "right"
	case DisplayUpMirrored:
		return "up-mirrored"
	case DisplayDownMirrored:
		return "down-mirrored"
	case DisplayLeftMirrored:
		return "left-mirrored"
	case DisplayRightMirrored:
		return "right-mirrored"
	default:
		return "up"
	}
}
