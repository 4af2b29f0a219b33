package library

// GameFilter specifies criteria for listing games.
type GameFilter struct {
	System       *string
	CollectionID *int64
	Name         *string
	Limit        int // 0 = no limit
	Offset       int
}

// SkinFilter specifies criteria for listing skins.
type SkinFilter struct {
	System     *string
	Identifier *string
	Limit      int
	Offset     int
}
