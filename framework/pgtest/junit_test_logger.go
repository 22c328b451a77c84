package pgtest

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pgraph-tests/pgraph-harness/framework"
)

// JUnitTestLogger collects the run and writes it as JUnit XML when EndLog is called. Each
// pgraph suite becomes one <testsuite>.
type JUnitTestLogger struct {
	filePath string
	runID    uuid.UUID
	filters  RegexFilters
	testIDs  []TestID // this slice preserves the order that the tests were run in
	tests    map[TestID]jUnitTestStatus
	lock     sync.Mutex
}

type jUnitTestStatus struct {
	failures   []error
	skipped    bool
	skipReason string
	output     string
	duration   time.Duration
}

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

func NewJUnitTestLogger(filePath string, runID uuid.UUID, filters RegexFilters) *JUnitTestLogger {
	return &JUnitTestLogger{
		filePath: filePath,
		runID:    runID,
		filters:  filters,
		tests:    make(map[TestID]jUnitTestStatus),
	}
}

func (j *JUnitTestLogger) SuiteStarted(string) {}

func (j *JUnitTestLogger) TestStarted(id TestID) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.testIDs = append(j.testIDs, id)
	j.tests[id] = jUnitTestStatus{}
}

func (j *JUnitTestLogger) TestError(id TestID, err error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.tests[id]
	status.failures = append(status.failures, err)
	j.tests[id] = status
}

func (j *JUnitTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.tests[id]
	status.output = debugOutput.ToString("")
	status.duration = result.Duration
	status.skipped = result.Skipped
	status.skipReason = result.SkipReason
	j.tests[id] = status
}

func (j *JUnitTestLogger) TestSkipped(id TestID, reason string) {
	j.lock.Lock()
	defer j.lock.Unlock()
	if _, seen := j.tests[id]; !seen {
		j.testIDs = append(j.testIDs, id)
	}
	j.tests[id] = jUnitTestStatus{skipped: true, skipReason: reason}
}

func (j *JUnitTestLogger) EndLog(results Results) error {
	fmt.Printf("Writing JUnit data to %s\n", j.filePath)

	data, err := j.render(results)
	if err != nil {
		return err
	}
	return os.WriteFile(j.filePath, data, 0644) //nolint:gosec
}

func (j *JUnitTestLogger) render(results Results) ([]byte, error) {
	j.lock.Lock()
	defer j.lock.Unlock()

	var doc jUnitXMLDocument

	properties := []jUnitXMLProperty{
		{Name: "tests.run.id", Value: j.runID.String()},
		{Name: "tests.run.aborted", Value: fmt.Sprint(results.Aborted)},
		{Name: "tests.filter.mustMatch", Value: j.filters.MustMatch.String()},
		{Name: "tests.filter.mustNotMatch", Value: j.filters.MustNotMatch.String()},
	}

	for _, suiteName := range suiteNamesInOrder(j.testIDs) {
		suite := jUnitXMLTestSuite{
			Name:       suiteName,
			Properties: properties,
		}
		var suiteResults []TestResult
		for _, testID := range j.testIDs {
			if testID.Suite != suiteName {
				continue
			}
			status := j.tests[testID]

			suite.Tests++
			suiteResults = append(suiteResults, TestResult{Duration: status.duration})

			testCase := jUnitXMLTestCase{
				Classname: suiteName,
				Name:      testID.Test,
				Time:      jUnitDurationString(status.duration),
			}
			if status.skipped {
				suite.Skipped++
				testCase.SkipMessage = &jUnitXMLSkipMessage{Message: status.skipReason}
			}
			if len(status.failures) != 0 {
				suite.Failures++
				var messages []string
				for _, e := range status.failures {
					message := e.Error()
					if es, ok := e.(ErrorWithStacktrace); ok {
						message += "\n  Stacktrace:"
						for _, s := range es.Stacktrace {
							message += "\n    " + s.String()
						}
					}
					messages = append(messages, message)
				}
				testCase.Failure = &jUnitXMLFailure{
					Message:  strings.Join(messages, "\n"),
					Contents: status.output,
				}
			}

			suite.TestCases = append(suite.TestCases, testCase)
		}
		suite.Time = jUnitDurationString(totalDuration(suiteResults))
		doc.Suites = append(doc.Suites, suite)
	}

	bytes, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(bytes, '\n'), nil
}

func suiteNamesInOrder(allIDs []TestID) []string {
	var ret []string
	seen := make(map[string]bool)
	for _, testID := range allIDs {
		if !seen[testID.Suite] {
			ret = append(ret, testID.Suite)
			seen[testID.Suite] = true
		}
	}
	return ret
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
