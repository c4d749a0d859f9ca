package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"finsight/pkg/contracts/domain"
)

// minNormalitySample is the smallest sample the K² test is run on
const minNormalitySample = 8

// NormalityTest is a D'Agostino-Pearson K² omnibus test
type NormalityTest struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	IsNormal  bool    `json:"is_normal"`
}

// DistributionReport characterizes one numeric column
type DistributionReport struct {
	Column           string         `json:"column"`
	Stats            SampleStats    `json:"stats"`
	Skewness         *float64       `json:"skewness"`
	Kurtosis         *float64       `json:"kurtosis"`
	DistributionType string         `json:"distribution_type"`
	NormalityTest    *NormalityTest `json:"normality_test"`
}

// Distribution computes descriptive statistics, moments and, from eight
// values up, a normality test. Moments are null for a constant column.
func Distribution(table *domain.Table, column string) (*DistributionReport, error) {
	vals, err := values(table, column)
	if err != nil {
		return nil, err
	}

	report := &DistributionReport{
		Column:           column,
		Stats:            describeSample(vals),
		DistributionType: "non_normal",
	}

	skew, kurt := moments(vals)
	report.Skewness = nullable(skew)
	report.Kurtosis = nullable(kurt)

	if len(vals) >= minNormalitySample {
		report.NormalityTest = normalityTest(len(vals), skew, kurt)
		if report.NormalityTest != nil && report.NormalityTest.IsNormal {
			report.DistributionType = "normal"
		}
	}
	return report, nil
}

// moments returns the population skewness and excess kurtosis, NaN when the
// sample has no variance
func moments(vals []float64) (skew, kurt float64) {
	mean := stat.Mean(vals, nil)
	var m2, m3, m4 float64
	for _, v := range vals {
		d := v - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	n := float64(len(vals))
	m2, m3, m4 = m2/n, m3/n, m4/n
	if m2 == 0 {
		return math.NaN(), math.NaN()
	}
	return m3 / math.Pow(m2, 1.5), m4/(m2*m2) - 3
}

// normalityTest combines the skewness and kurtosis z-scores into K², which
// follows chi-square with two degrees of freedom under normality. It returns
// nil when either z-score is undefined.
func normalityTest(size int, skew, kurt float64) *NormalityTest {
	if math.IsNaN(skew) || math.IsNaN(kurt) {
		return nil
	}
	zs := skewZ(float64(size), skew)
	zk := kurtosisZ(float64(size), kurt+3)
	k2 := zs*zs + zk*zk
	if math.IsNaN(k2) || math.IsInf(k2, 0) {
		return nil
	}

	p := distuv.ChiSquared{K: 2}.Survival(k2)
	return &NormalityTest{
		Statistic: k2,
		PValue:    p,
		IsNormal:  p > significanceLevel,
	}
}

// skewZ transforms the sample skewness into an approximately standard normal score
func skewZ(n, b2 float64) float64 {
	y := b2 * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) / ((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(0.5*math.Log(w2))
	alpha := math.Sqrt(2 / (w2 - 1))
	if y == 0 {
		y = 1
	}
	return delta * math.Log(y/alpha+math.Sqrt((y/alpha)*(y/alpha)+1))
}

// kurtosisZ transforms the sample (non-excess) kurtosis into an approximately
// standard normal score
func kurtosisZ(n, b2 float64) float64 {
	e := 3 * (n - 1) / (n + 1)
	varb2 := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	x := (b2 - e) / math.Sqrt(varb2)
	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) * math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))
	term1 := 1 - 2/(9*a)
	denom := 1 + x*math.Sqrt(2/(a-4))
	if denom == 0 {
		return math.NaN()
	}
	term2 := math.Copysign(math.Cbrt((1-2/a)/math.Abs(denom)), denom)
	return (term1 - term2) / math.Sqrt(2/(9*a))
}
