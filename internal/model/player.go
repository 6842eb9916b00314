package model

type Player struct {
	ID string
}

type ClientPlayer struct {
	ID    string `json:"id"`
	Color Color  `json:"color"`
}

type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

func (p *Players) seat(c Color) *ClientPlayer {
	if c == White {
		return &p.White
	}
	return &p.Black
}

// colorOf returns the colour playerID plays.
func (p *Players) colorOf(playerID string) (Color, bool) {
	switch {
	case playerID == "":
		return White, false
	case p.White.ID == playerID:
		return White, true
	case p.Black.ID == playerID:
		return Black, true
	}
	return White, false
}
