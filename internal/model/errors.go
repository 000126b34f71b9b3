package model

import "github.com/rotisserie/eris"

// Error kinds surfaced to the caller. Components wrap these with eris so
// the originating context is preserved while the kind stays checkable with
// eris.Is.
var (
	// ErrSchema covers a missing ID field, or empty/duplicate ID values.
	ErrSchema = eris.New("schema error")

	// ErrReprojection is returned when input sources disagree on their
	// coordinate system and no transform to the watershed CRS can be
	// established.
	ErrReprojection = eris.New("reprojection error")

	// ErrInvalidGeometry is returned for degenerate or empty geometry
	// passed to a geometry operation.
	ErrInvalidGeometry = eris.New("invalid geometry")

	// ErrUnprojectedCRS is returned when a linear measurement is requested
	// under a geographic (angular) coordinate system.
	ErrUnprojectedCRS = eris.New("unprojected coordinate system")

	// ErrWrite is returned when the output destination is unwritable or
	// already exists and overwrite is disallowed.
	ErrWrite = eris.New("write error")
)

// ErrorKind returns a short machine-readable name for the error's kind, or
// "internal" when the error matches no known kind.
func ErrorKind(err error) string {
	switch {
	case eris.Is(err, ErrSchema):
		return "schema"
	case eris.Is(err, ErrReprojection):
		return "reprojection"
	case eris.Is(err, ErrInvalidGeometry):
		return "invalid_geometry"
	case eris.Is(err, ErrUnprojectedCRS):
		return "unprojected_crs"
	case eris.Is(err, ErrWrite):
		return "write"
	default:
		return "internal"
	}
}
