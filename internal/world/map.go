package world

// Grid indexes tiles by coordinate for a square grid of the given size.
type Grid struct {
	Tiles map[Coord]*Tile
	Size  int
}

// NewGrid creates an empty grid index.
func NewGrid(size int) *Grid {
	return &Grid{
		Tiles: make(map[Coord]*Tile, size*size),
		Size:  size,
	}
}

// GridOf indexes the tiles of a state. The returned pointers alias s.Tiles.
func GridOf(s *State) *Grid {
	g := NewGrid(s.GridSize)
	for i := range s.Tiles {
		g.Set(&s.Tiles[i])
	}
	return g
}

// Get returns the tile at the given coordinate, or nil.
func (g *Grid) Get(c Coord) *Tile {
	return g.Tiles[c]
}

// Set places a tile at its coordinate.
func (g *Grid) Set(t *Tile) {
	g.Tiles[t.Coord()] = t
}

// InBounds returns true if the coordinate lies within [0,size)².
func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Size && c.Y < g.Size
}
