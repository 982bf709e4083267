package overheating

import "gonum.org/v1/gonum/mat"

// HoursPerYear is the column count of every input matrix: one non-leap year
// of hourly values.
const HoursPerYear = 8760

// AnyZoneCount disables the zone-count check in CheckShape.
const AnyZoneCount = -1

// CheckShape verifies that m is a (expectedZones, expectedTimesteps) matrix.
// name identifies the matrix in the returned *ShapeError. A nil or empty
// matrix is a rank error.
func CheckShape(name string, m *mat.Dense, expectedZones, expectedTimesteps int) error {
	if m == nil {
		return &ShapeError{Matrix: name, Dimension: DimensionRank, Row: -1}
	}
	if m.IsEmpty() {
		return &ShapeError{Matrix: name, Dimension: DimensionRank, Got: 0, Row: -1}
	}
	rows, cols := m.Dims()
	if expectedZones != AnyZoneCount && rows != expectedZones {
		return &ShapeError{Matrix: name, Dimension: DimensionZones, Expected: expectedZones, Got: rows, Row: -1}
	}
	if cols != expectedTimesteps {
		return &ShapeError{Matrix: name, Dimension: DimensionTimesteps, Expected: expectedTimesteps, Got: cols, Row: -1}
	}
	return nil
}

// MatrixFromRows packs row-major zone series into a dense matrix, rejecting
// empty and ragged input. The timestep count is not checked here.
func MatrixFromRows(name string, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, &ShapeError{Matrix: name, Dimension: DimensionRank, Got: 0, Row: -1}
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return nil, &ShapeError{Matrix: name, Dimension: DimensionRank, Expected: width, Got: len(row), Row: i}
		}
	}
	if width == 0 {
		return nil, &ShapeError{Matrix: name, Dimension: DimensionTimesteps, Expected: HoursPerYear, Got: 0, Row: -1}
	}

	data := make([]float64, 0, len(rows)*width)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), width, data), nil
}
