package linreg_test

import (
	"fmt"
	"log"

	"github.com/arloliu/linreg"
)

// ExampleFit demonstrates fitting observations held in memory.
func ExampleFit() {
	features := [][]float64{{-2}, {1}, {4}, {3}, {2}, {0}, {5}}
	responses := []float64{5, 3, 1, 0, 0, 2, -1}

	result, err := linreg.Fit(features, responses)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(result.Model.Formula())
	fmt.Printf("R²: %.4f\n", result.Statistics.R2)
	fmt.Printf("At x=2: %.4f\n", result.Value([]float64{2}))
	// Output:
	// y = 2.84426 - 0.762295·x0
	// R²: 0.7877
	// At x=2: 1.3197
}

// ExampleNewAccumulator demonstrates merging partial accumulators.
func ExampleNewAccumulator() {
	left, _ := linreg.NewAccumulator(1)
	right, _ := linreg.NewAccumulator(1)

	_ = left.Sample([]float64{1}, 3)
	_ = left.Sample([]float64{2}, 5)
	_ = right.Sample([]float64{3}, 7)
	_ = right.Sample([]float64{4}, 9)

	if err := left.Merge(right); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Count:", left.Count())
	fmt.Println("Sum of responses:", left.ResponseSum())
	// Output:
	// Count: 4
	// Sum of responses: 24
}
