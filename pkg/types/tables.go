package types

// Standard table names for Pantry.GetTable.
const (
	TableNoodles    = "noodles"
	TableCategories = "categories"
	TableFavourites = "favourites"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	TableNoodles,
	TableCategories,
	TableFavourites,
}
