// Package classification grades consumption density on the A to G energy
// performance scale.
package classification

// DefaultArea replaces a missing or non-positive floor area.
const DefaultArea = 100.0

type Class string

const (
	ClassA Class = "A"
	ClassB Class = "B"
	ClassC Class = "C"
	ClassD Class = "D"
	ClassE Class = "E"
	ClassF Class = "F"
	ClassG Class = "G"
)

type band struct {
	class Class
	upper float64
	score int
	label string
	color string
}

// Upper bounds are inclusive. G has no upper bound.
var bands = []band{
	{ClassA, 50, 100, "Excellent", "#00A84F"},
	{ClassB, 90, 85, "Très bien", "#50B847"},
	{ClassC, 150, 70, "Bien", "#C8D200"},
	{ClassD, 230, 55, "Moyen", "#FFD500"},
	{ClassE, 330, 40, "Médiocre", "#FFAA00"},
	{ClassF, 450, 25, "Mauvais", "#FF7E00"},
}

var classG = band{ClassG, 0, 10, "Très mauvais", "#FF0000"}

type Result struct {
	Class       Class
	Score       int
	Density     float64
	AreaUsed    float64
	AreaDefault bool
}

// Density returns kWh per m² per year and the area actually used.
func Density(annualKWh, area float64) (float64, float64) {
	if area <= 0 {
		area = DefaultArea
	}
	return annualKWh / area, area
}

func Classify(density float64) Class {
	return lookup(density).class
}

func Score(density float64) int {
	return lookup(density).score
}

func Evaluate(annualKWh, area float64) Result {
	density, used := Density(annualKWh, area)
	b := lookup(density)
	return Result{
		Class:       b.class,
		Score:       b.score,
		Density:     density,
		AreaUsed:    used,
		AreaDefault: used != area,
	}
}

func lookup(density float64) band {
	for _, b := range bands {
		if density <= b.upper {
			return b
		}
	}
	return classG
}

// Classes lists the scale from best to worst.
func Classes() []Class {
	out := make([]Class, 0, len(bands)+1)
	for _, b := range bands {
		out = append(out, b.class)
	}
	return append(out, classG.class)
}

func (c Class) Label() string {
	return c.band().label
}

// Color is the conventional certificate color for the class, as #RRGGBB.
func (c Class) Color() string {
	return c.band().color
}

// UpperBound returns the inclusive density ceiling, or false for G.
func (c Class) UpperBound() (float64, bool) {
	b := c.band()
	return b.upper, b.class != ClassG
}

// Valid reports whether c is one of A to G.
func (c Class) Valid() bool {
	return c != "" && c.band().class == c
}

func (c Class) band() band {
	for _, b := range bands {
		if b.class == c {
			return b
		}
	}
	if c == ClassG {
		return classG
	}
	return band{}
}
