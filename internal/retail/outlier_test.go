package retail

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailsight/pkg/contracts/domain"
)

func detect(t *testing.T, records []domain.SalesRecord) (OutlierStats, []QualityIssue) {
	t.Helper()
	cfg := testConfig()
	cleaned := NewQualityScorer(cfg, testLogger()).ScoreAll(records)
	return NewOutlierDetector(cfg, testLogger()).Detect(cleaned)
}

func issuesOfType(issues []QualityIssue, issueType string) []QualityIssue {
	var out []QualityIssue
	for _, issue := range issues {
		if issue.IssueType == issueType {
			out = append(out, issue)
		}
	}
	return out
}

func TestOutlierDetector_NegativeValuesAreCritical(t *testing.T) {
	records := []domain.SalesRecord{
		record("NAIVAS WESTLANDS", "IT001", 1, f(-5), f(450), f(100)),
		record("NAIVAS WESTLANDS", "IT002", 1, f(10), f(-450), f(100)),
		record("NAIVAS WESTLANDS", "IT003", 1, f(10), f(1000), f(100)),
	}

	_, issues := detect(t, records)

	negQty := issuesOfType(issues, IssueNegativeQuantity)
	require.Len(t, negQty, 1)
	assert.Equal(t, SeverityCritical, negQty[0].Severity)
	assert.Equal(t, "IT001", negQty[0].ItemCode)

	negSales := issuesOfType(issues, IssueNegativeSales)
	require.Len(t, negSales, 1)
	assert.Equal(t, SeverityCritical, negSales[0].Severity)
	assert.Equal(t, "IT002", negSales[0].ItemCode)
}

func TestOutlierDetector_ExtremeQuantityAboveStdDevBand(t *testing.T) {
	// Twenty records at quantity 10 and one at 1000. The spike sits above
	// mean + 3 stddev and must surface as a high-severity extreme.
	var records []domain.SalesRecord
	for day := 1; day <= 20; day++ {
		records = append(records, dayRecord("NAIVAS WESTLANDS", "IT010", day, 10, 50))
	}
	records = append(records, dayRecord("NAIVAS WESTLANDS", "IT999", 21, 1000, 50))

	stats, issues := detect(t, records)
	assert.Equal(t, 21, stats.SampleSize)

	extreme := issuesOfType(issues, IssueExtremeQuantity)
	require.Len(t, extreme, 1)
	assert.Equal(t, SeverityHigh, extreme[0].Severity)
	assert.Equal(t, "IT999", extreme[0].ItemCode)
	require.NotNil(t, extreme[0].DeviationRatio)
	assert.Greater(t, *extreme[0].DeviationRatio, 1.0)
}

func TestOutlierDetector_SuspiciouslyLowPrice(t *testing.T) {
	records := []domain.SalesRecord{
		record("NAIVAS WESTLANDS", "IT020", 1, f(100), f(50), f(100)), // realized 0.50
		record("NAIVAS WESTLANDS", "IT021", 1, f(10), f(1000), f(100)),
	}

	_, issues := detect(t, records)
	low := issuesOfType(issues, IssueSuspiciousPrice)
	require.Len(t, low, 1)
	assert.Equal(t, SeverityMedium, low[0].Severity)
	assert.Equal(t, "IT020", low[0].ItemCode)
}

func TestOutlierDetector_DuplicatesAndMissingFieldsAreLow(t *testing.T) {
	r := record("NAIVAS WESTLANDS", "IT030", 1, f(10), f(450), nil)
	records := []domain.SalesRecord{r, r}

	_, issues := detect(t, records)

	dupes := issuesOfType(issues, IssueDuplicateRecord)
	assert.Len(t, dupes, 2, "both copies of a duplicate pair are flagged")
	for _, d := range dupes {
		assert.Equal(t, SeverityLow, d.Severity)
	}

	missing := issuesOfType(issues, IssueMissingField)
	require.Len(t, missing, 2)
	assert.Contains(t, missing[0].Detail, "rrp")
}

func TestOutlierDetector_IssuesSortedBySeverity(t *testing.T) {
	records := []domain.SalesRecord{
		record("NAIVAS WESTLANDS", "IT040", 1, f(10), f(450), nil), // low: missing rrp
		record("NAIVAS WESTLANDS", "IT041", 1, f(-3), f(450), f(100)),
	}

	_, issues := detect(t, records)
	require.NotEmpty(t, issues)
	assert.Equal(t, SeverityCritical, issues[0].Severity)
	for i := 1; i < len(issues); i++ {
		assert.LessOrEqual(t, severityRank(issues[i-1].Severity), severityRank(issues[i].Severity))
	}
}

func TestOutlierDetector_StatsInvariantToRowOrder(t *testing.T) {
	var records []domain.SalesRecord
	for day := 1; day <= 25; day++ {
		records = append(records, dayRecord("NAIVAS WESTLANDS", "IT050", day, float64(day*3), float64(40+day)))
	}

	shuffled := make([]domain.SalesRecord, len(records))
	copy(shuffled, records)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cfg := testConfig()
	scorer := NewQualityScorer(cfg, testLogger())
	detector := NewOutlierDetector(cfg, testLogger())

	assert.Equal(t,
		detector.ComputeStats(scorer.ScoreAll(records)),
		detector.ComputeStats(scorer.ScoreAll(shuffled)),
		"dataset statistics must not depend on ingestion order")
}
