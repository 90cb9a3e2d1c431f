package export

import (
	"encoding/csv"
	"io"

	"github.com/netdecker/netdecker-backend/internal/cardlist"
)

// cubeCSVHeader matches CubeCobra's "Replace with CSV File Upload" columns.
// Only the name column is required; the rest stay blank.
var cubeCSVHeader = []string{
	"name",
	"CMC",
	"Type",
	"Color",
	"Set",
	"Collector Number",
	"Rarity",
	"Color Category",
	"status",
	"Finish",
	"maybeboard",
	"image URL",
	"image Back URL",
	"tags",
	"Notes",
	"MTGO ID",
}

// WriteCubeCSV writes a deck's card list as a CubeCobra upload CSV, one row
// per physical copy.
func WriteCubeCSV(w io.Writer, cards cardlist.Cards) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cubeCSVHeader); err != nil {
		return err
	}

	row := make([]string, len(cubeCSVHeader))
	for _, name := range cards.SortedNames() {
		row[0] = name
		for i := 0; i < cards[name]; i++ {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
