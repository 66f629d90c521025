package shape

// Inertia holds the mass properties of a body about its center of mass.
// A zero mass or angular inertia means the body cannot be moved along
// that degree of freedom.
type Inertia struct {
	Mass           float64
	AngularInertia float64
}

// Inverse returns the inverse mass properties, mapping zero to zero.
func (i Inertia) Inverse() Inertia {
	var inv Inertia
	if i.Mass != 0 {
		inv.Mass = 1 / i.Mass
	}
	if i.AngularInertia != 0 {
		inv.AngularInertia = 1 / i.AngularInertia
	}
	return inv
}

// Add sums two inertias taken about the same point.
func (i Inertia) Add(o Inertia) Inertia {
	return Inertia{Mass: i.Mass + o.Mass, AngularInertia: i.AngularInertia + o.AngularInertia}
}
