package reader

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	proj "github.com/twpayne/go-proj/v11"

	"github.com/basinworks/roaddensity/internal/model"
)

// transformer reprojects geometries from a source CRS into the canonical
// (watershed) CRS. A nil transformer is the identity.
type transformer struct {
	pj *proj.PJ
}

// newTransformer builds a transform between two .prj definitions. Returns
// nil when the CRSs already match. Sources that differ but lack a WKT on
// either side cannot be reconciled.
func newTransformer(source, target model.CRS) (*transformer, error) {
	if source.Equal(target) {
		return nil, nil
	}
	if source.WKT == "" || target.WKT == "" {
		return nil, eris.Wrap(model.ErrReprojection, "reader: source and watershed coordinate systems differ and one has no .prj definition")
	}

	pj, err := proj.NewCRSToCRS(source.WKT, target.WKT, nil)
	if err != nil {
		return nil, eris.Wrap(model.ErrReprojection, "reader: no transform between source and watershed coordinate systems")
	}
	return &transformer{pj: pj}, nil
}

// apply reprojects g in place. The flat coordinate slice is rewritten
// coordinate pair by coordinate pair; stride beyond XY is preserved.
func (t *transformer) apply(g geom.T) error {
	if t == nil || g == nil {
		return nil
	}

	flat := g.FlatCoords()
	stride := g.Stride()
	for i := 0; i+1 < len(flat); i += stride {
		out, err := t.pj.Forward(proj.NewCoord(flat[i], flat[i+1], 0, 0))
		if err != nil {
			return eris.Wrap(model.ErrReprojection, "reader: transform coordinate")
		}
		flat[i] = out.X()
		flat[i+1] = out.Y()
	}
	return nil
}
