package reader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/basinworks/roaddensity/internal/model"
)

// readCRS loads the .prj sidecar next to a shapefile. A missing sidecar is
// not an error; it yields an empty CRS that only matches other empty CRSs.
func readCRS(shpPath string) (model.CRS, error) {
	prjPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"

	data, err := os.ReadFile(prjPath)
	if err != nil {
		if os.IsNotExist(err) {
			return model.CRS{}, nil
		}
		return model.CRS{}, eris.Wrapf(err, "reader: read %s", prjPath)
	}

	wkt := strings.TrimSpace(string(data))
	return model.CRS{WKT: wkt, Geographic: isGeographicWKT(wkt)}, nil
}

// isGeographicWKT reports whether a .prj WKT describes an angular system.
// Both WKT1 (GEOGCS/PROJCS) and WKT2 (GEOGCRS/PROJCRS) roots are handled;
// a projected system wraps its geographic base, so the root keyword decides.
func isGeographicWKT(wkt string) bool {
	upper := strings.ToUpper(strings.TrimSpace(wkt))
	switch {
	case strings.HasPrefix(upper, "PROJCS"), strings.HasPrefix(upper, "PROJCRS"):
		return false
	case strings.HasPrefix(upper, "GEOGCS"), strings.HasPrefix(upper, "GEOGCRS"):
		return true
	default:
		return false
	}
}
