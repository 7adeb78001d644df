package predict

import (
	"fmt"
	"math"
)

// Regularization strength for the normal equation.
const ridgeLambda = 0.01

// RidgeModel is a linear model over the draft feature vector with an
// explicit bias term.
type RidgeModel struct {
	Weights []float64
	Bias    float64
}

// TrainRidge fits ridge regression via the normal equation
// (AᵀA + λI)w = Aᵀy on a bias-augmented design matrix.
func TrainRidge(features [][]float64, targets []float64, lambda float64) (*RidgeModel, error) {
	n := len(features)
	if n == 0 || n != len(targets) {
		return nil, fmt.Errorf("invalid training set: %d samples, %d targets", n, len(targets))
	}
	dims := len(features[0])
	for i, row := range features {
		if len(row) != dims {
			return nil, fmt.Errorf("inconsistent feature dimensions at sample %d", i)
		}
	}

	// Augment with a trailing bias column of ones
	cols := dims + 1

	// AᵀA + λI
	ata := make([][]float64, cols)
	for i := range ata {
		ata[i] = make([]float64, cols)
	}
	for _, row := range features {
		for i := 0; i < cols; i++ {
			vi := augmented(row, i)
			for j := 0; j < cols; j++ {
				ata[i][j] += vi * augmented(row, j)
			}
		}
	}
	for i := 0; i < cols; i++ {
		ata[i][i] += lambda
	}

	// Aᵀy
	aty := make([]float64, cols)
	for s, row := range features {
		for i := 0; i < cols; i++ {
			aty[i] += augmented(row, i) * targets[s]
		}
	}

	solution, err := solveLinearSystem(ata, aty)
	if err != nil {
		return nil, err
	}

	return &RidgeModel{
		Weights: solution[:dims],
		Bias:    solution[dims],
	}, nil
}

// Predict evaluates the model, clamping the result to non-negative.
func (m *RidgeModel) Predict(features []float64) float64 {
	if len(features) != len(m.Weights) {
		return 0
	}
	sum := m.Bias
	for i, w := range m.Weights {
		sum += w * features[i]
	}
	if sum < 0 {
		return 0
	}
	return sum
}

func augmented(row []float64, i int) float64 {
	if i == len(row) {
		return 1
	}
	return row[i]
}

// solveLinearSystem solves Ax = b by Gaussian elimination with partial
// pivoting. A and b are modified in place.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for col := row + 1; col < n; col++ {
			sum -= a[row][col] * x[col]
		}
		x[row] = sum / a[row][row]
	}

	return x, nil
}
