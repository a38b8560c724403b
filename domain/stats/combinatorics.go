// Package stats scores observed category counts against a binomial background.
package stats

import (
	"fmt"
	"math"

	"prowler/domain/core"
)

// LogBinomialCoefficient returns log(C(n, k)) using the multiplicative formula,
// accumulating log((n-i+1)/i) so the coefficient itself is never formed.
func LogBinomialCoefficient(n, k int) (float64, error) {
	if n < 0 || k < 0 || k > n {
		return 0, core.NewPreconditionError(fmt.Sprintf("log binomial coefficient needs 0 <= k <= n, got n=%d k=%d", n, k))
	}
	if k > n-k {
		k = n - k
	}
	nf := float64(n)
	w := 0.0
	for i := 1; i <= k; i++ {
		w += math.Log((nf - float64(i) + 1.0) / float64(i))
	}
	return w, nil
}

// LogBinomialTailProbability returns the log-probability of observing exactly
// hits successes in trials draws with success probability p:
//
//	log C(trials, hits) + hits*log(p) + (trials-hits)*log(1-p)
//
// A term whose exponent is zero is skipped, so p of 0 or 1 is only a domain
// error when the corresponding term is required.
func LogBinomialTailProbability(hits, trials int, p float64) (float64, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, core.NewDomainMathError("binomial tail", fmt.Sprintf("background probability %v outside [0, 1]", p))
	}
	if trials < 0 || hits < 0 {
		return 0, core.NewPreconditionError(fmt.Sprintf("binomial tail needs non-negative counts, got hits=%d trials=%d", hits, trials))
	}
	if hits > trials {
		return 0, core.NewDomainMathError("binomial tail", fmt.Sprintf("hits %d exceed trials %d", hits, trials))
	}

	logP, err := LogBinomialCoefficient(trials, hits)
	if err != nil {
		return 0, err
	}
	if hits > 0 {
		if p == 0 {
			return 0, core.NewDomainMathError("binomial tail", fmt.Sprintf("log(0) for %d hits at p=0", hits))
		}
		logP += float64(hits) * math.Log(p)
	}
	if misses := trials - hits; misses > 0 {
		if p == 1 {
			return 0, core.NewDomainMathError("binomial tail", fmt.Sprintf("log(0) for %d misses at p=1", misses))
		}
		logP += float64(misses) * math.Log1p(-p)
	}
	return logP, nil
}
