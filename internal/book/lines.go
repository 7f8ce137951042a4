package book

// DefaultLines is the built-in opening repertoire.
var DefaultLines = []Line{
	{Name: "King's Pawn Game", Moves: "e2e4", Weight: 40},
	{Name: "Queen's Pawn Game", Moves: "d2d4", Weight: 35},
	{Name: "English Opening", Moves: "c2c4", Weight: 12},
	{Name: "Reti Opening", Moves: "g1f3", Weight: 10},

	{Name: "Open Game", Moves: "e2e4 e7e5", Weight: 10},
	{Name: "Sicilian Defense", Moves: "e2e4 c7c5", Weight: 12},
	{Name: "French Defense", Moves: "e2e4 e7e6", Weight: 6},
	{Name: "Caro-Kann Defense", Moves: "e2e4 c7c6", Weight: 5},
	{Name: "Scandinavian Defense", Moves: "e2e4 d7d5", Weight: 2},
	{Name: "Pirc Defense", Moves: "e2e4 d7d6 d2d4 g8f6 b1c3 g7g6", Weight: 2},

	{Name: "Ruy Lopez", Moves: "e2e4 e7e5 g1f3 b8c6 f1b5", Weight: 10},
	{Name: "Ruy Lopez: Morphy Defense", Moves: "e2e4 e7e5 g1f3 b8c6 f1b5 a7a6 b5a4 g8f6 e1g1", Weight: 6},
	{Name: "Italian Game", Moves: "e2e4 e7e5 g1f3 b8c6 f1c4", Weight: 8},
	{Name: "Giuoco Piano", Moves: "e2e4 e7e5 g1f3 b8c6 f1c4 f8c5 c2c3", Weight: 4},
	{Name: "Two Knights Defense", Moves: "e2e4 e7e5 g1f3 b8c6 f1c4 g8f6", Weight: 3},
	{Name: "Scotch Game", Moves: "e2e4 e7e5 g1f3 b8c6 d2d4 e5d4 f3d4", Weight: 3},
	{Name: "Petrov Defense", Moves: "e2e4 e7e5 g1f3 g8f6", Weight: 2},
	{Name: "King's Gambit", Moves: "e2e4 e7e5 f2f4", Weight: 1},
	{Name: "Vienna Game", Moves: "e2e4 e7e5 b1c3", Weight: 1},

	{Name: "Sicilian Defense: Open", Moves: "e2e4 c7c5 g1f3 d7d6 d2d4 c5d4 f3d4 g8f6 b1c3", Weight: 6},
	{Name: "Sicilian Defense: Najdorf", Moves: "e2e4 c7c5 g1f3 d7d6 d2d4 c5d4 f3d4 g8f6 b1c3 a7a6", Weight: 4},
	{Name: "Sicilian Defense: Alapin", Moves: "e2e4 c7c5 c2c3", Weight: 2},
	{Name: "French Defense: Advance", Moves: "e2e4 e7e6 d2d4 d7d5 e4e5", Weight: 2},
	{Name: "French Defense: Winawer", Moves: "e2e4 e7e6 d2d4 d7d5 b1c3 f8b4", Weight: 2},
	{Name: "Caro-Kann Defense: Advance", Moves: "e2e4 c7c6 d2d4 d7d5 e4e5", Weight: 2},
	{Name: "Scandinavian Defense: Main Line", Moves: "e2e4 d7d5 e4d5 d8d5 b1c3 d5a5", Weight: 1},

	{Name: "Queen's Gambit", Moves: "d2d4 d7d5 c2c4", Weight: 10},
	{Name: "Queen's Gambit Declined", Moves: "d2d4 d7d5 c2c4 e7e6 b1c3 g8f6", Weight: 6},
	{Name: "Queen's Gambit Accepted", Moves: "d2d4 d7d5 c2c4 d5c4", Weight: 3},
	{Name: "Slav Defense", Moves: "d2d4 d7d5 c2c4 c7c6", Weight: 5},
	{Name: "London System", Moves: "d2d4 d7d5 g1f3 g8f6 c1f4", Weight: 4},
	{Name: "Indian Defense", Moves: "d2d4 g8f6", Weight: 10},
	{Name: "King's Indian Defense", Moves: "d2d4 g8f6 c2c4 g7g6 b1c3 f8g7 e2e4 d7d6", Weight: 5},
	{Name: "Nimzo-Indian Defense", Moves: "d2d4 g8f6 c2c4 e7e6 b1c3 f8b4", Weight: 5},
	{Name: "Queen's Indian Defense", Moves: "d2d4 g8f6 c2c4 e7e6 g1f3 b7b6", Weight: 3},
	{Name: "Grunfeld Defense", Moves: "d2d4 g8f6 c2c4 g7g6 b1c3 d7d5", Weight: 3},
	{Name: "Dutch Defense", Moves: "d2d4 f7f5", Weight: 2},

	{Name: "English Opening: Symmetrical", Moves: "c2c4 c7c5", Weight: 3},
	{Name: "English Opening: Reversed Sicilian", Moves: "c2c4 e7e5", Weight: 3},
	{Name: "Reti Opening: Main Line", Moves: "g1f3 d7d5 c2c4", Weight: 3},
}
