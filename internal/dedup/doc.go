// Package dedup decides which frames of a stream are worth keeping.
//
// MSE scores two grayscale frames, Engine applies the keep/drop policy
// against the most recently kept frame, and Reconcile derives the output
// frame rate from the kept/evaluated ratio.
package dedup
