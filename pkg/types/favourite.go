package types

import (
	"errors"
	"time"
)

// Favourite marks a noodle as a favourite. The noodle ID is the key.
type Favourite struct {
	NoodleID  string    `json:"noodleId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToggleFavourite adds the noodle to the favourites when it is not one and
// removes it otherwise. Returns the new state: true when now a favourite.
// Returns ErrNotFound if the noodle does not exist.
func ToggleFavourite(p Pantry, noodleID string) (bool, error) {
	tbl, err := p.GetTable(TableFavourites)
	if err != nil {
		return false, err
	}
	err = tbl.Delete(noodleID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if _, err := tbl.Set(noodleID, &Favourite{NoodleID: noodleID}); err != nil {
		return false, err
	}
	return true, nil
}
