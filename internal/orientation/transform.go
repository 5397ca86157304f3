package orientation

// Transform is the operation that turns stored pixels upright: first mirror
// left to right (if Mirrored), then rotate clockwise by Rotation degrees.
type Transform struct {
	Rotation int  `json:"rotation"` // 0, 90, 180 or 270
	Mirrored bool `json:"mirrored"`
}

// Transform returns the upright transform for c.
func (c Code) Transform() Transform {
	switch c {
	case MirrorHorizontal:
		return Transform{Rotation: 0, Mirrored: true}
	case Rotate180:
		return Transform{Rotation: 180}
	case MirrorVertical:
		return Transform{Rotation: 180, Mirrored: true}
	case Transpose:
		return Transform{Rotation: 270, Mirrored: true}
	case Rotate90:
		return Transform{Rotation: 90}
	case Transverse:
		return Transform{Rotation: 90, Mirrored: true}
	case Rotate270:
		return Transform{Rotation: 270}
	default:
		return Transform{}
	}
}

// FromTransform maps a transform back to its code. Rotations are normalized
// modulo 360; anything other than a quarter-turn multiple maps to Normal.
func FromTransform(t Transform) Code {
	rot := ((t.Rotation % 360) + 360) % 360
	for _, c := range All {
		ct := c.Transform()
		if ct.Rotation == rot && ct.Mirrored == t.Mirrored {
			return c
		}
	}
	return Normal
}

// FromRotation maps a clockwise display rotation in degrees (as reported by
// video containers) to a code.
func FromRotation(degrees int) Code {
	return FromTransform(Transform{Rotation: degrees})
}
