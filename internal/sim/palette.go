package sim

// paletteColors is the rotating set of cosmetic colors assigned to
// participants in join order
var paletteColors = []string{
	"#e6194b", // red
	"#3cb44b", // green
	"#4363d8", // blue
	"#f58231", // orange
	"#911eb4", // purple
	"#42d4f4", // cyan
	"#f032e6", // magenta
	"#bfef45", // lime
	"#fabed4", // pink
	"#469990", // teal
}

// Palette hands out cosmetic colors in a deterministic rotation
type Palette struct {
	next int
}

// Next returns the next color in the rotation
func (p *Palette) Next() string {
	c := paletteColors[p.next%len(paletteColors)]
	p.next++
	return c
}
