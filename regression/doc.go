// Package regression estimates ordinary least-squares linear models from
// accumulated moment sums.
//
// The package never sees raw observations. It works on sampling.SufficientStats
// accumulators, which may have been merged from many partitions, and derives
// everything from the sums they hold.
//
// # Estimation Pipeline
//
//  1. BuildEquation turns the moment sums into the normal equations in
//     covariance form: a lower-triangular covariance matrix and a constraint vector.
//  2. SolveCoefficients solves them with a Cholesky decomposition. A matrix that
//     is not positive definite (collinear or constant features) yields
//     ErrLinearlyDependentData.
//  3. CalculateIntercept recovers the intercept from the means.
//  4. CalculateStatistics derives RSS, MSE and R² from the same sums.
//
// # Usage Patterns
//
// ## Strict estimation
//
//	model, err := regression.Estimate(stats)
//	if errors.Is(err, errs.ErrInsufficientData) {
//	    // wait for more observations
//	}
//	y, _ := model.Predict([]float64{1.5, 2.0})
//
// ## Lenient evaluation
//
// Hosts that aggregate streaming data treat "no model yet" as a normal outcome:
//
//	est, _ := regression.NewEstimator(regression.WithLogger(logger))
//	result, err := est.Evaluate(stats)
//	if err != nil {
//	    log.Fatal(err) // misuse only
//	}
//	if !result.Estimated() {
//	    fmt.Println("no model:", result.Reason)
//	}
//
// ## Partitioned reduce
//
//	result, err := est.Reduce(partialA, partialB, partialC)
//
// # Estimation States
//
// A bucket moves through Empty → Accumulating → Mergeable → Estimated or
// Insufficient. Insufficient covers both too few observations
// (count <= features count, never solved) and linearly dependent data; the
// Result.Reason keeps the distinct cause for diagnostics.
//
// # Residual Scoring
//
// FittedModel.Score ranks observations by their deviation from the model, with
// a Modifier (abs, square, reciprocal, ...) applied to the residual.
//
// # Thread Safety
//
// All functions are pure. An Estimator holds immutable configuration and is
// safe for concurrent use.
package regression
