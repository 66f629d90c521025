package geom

// Isometry is a rigid transform: rotate by Rotation radians, then translate.
type Isometry struct {
	Translation Vec2
	Rotation    float64
}

func Identity() Isometry { return Isometry{} }

func NewIsometry(translation Vec2, rotation float64) Isometry {
	return Isometry{Translation: translation, Rotation: rotation}
}

func (iso Isometry) TransformPoint(p Vec2) Vec2 {
	return Rotate(p, iso.Rotation).Add(iso.Translation)
}

func (iso Isometry) InverseTransformPoint(p Vec2) Vec2 {
	return Rotate(p.Sub(iso.Translation), -iso.Rotation)
}

func (iso Isometry) TransformVector(v Vec2) Vec2 {
	return Rotate(v, iso.Rotation)
}

func (iso Isometry) InverseTransformVector(v Vec2) Vec2 {
	return Rotate(v, -iso.Rotation)
}

// Mul composes two isometries: the result applies other first, then iso.
func (iso Isometry) Mul(other Isometry) Isometry {
	return Isometry{
		Translation: iso.TransformPoint(other.Translation),
		Rotation:    iso.Rotation + other.Rotation,
	}
}

func (iso Isometry) Inverse() Isometry {
	return Isometry{
		Translation: Rotate(iso.Translation.Mul(-1), -iso.Rotation),
		Rotation:    -iso.Rotation,
	}
}
