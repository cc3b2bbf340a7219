package utils

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// StepTiming holds timing information for a single step
type StepTiming struct {
	Name      string
	StartTime time.Time
	Duration  time.Duration
	Failed    bool
	SubSteps  []*StepTiming
}

// StepAggregate holds aggregate timing information for a step
type StepAggregate struct {
	Count    int
	Failures int
	Total    time.Duration
	Average  time.Duration
	Min      time.Duration
	Max      time.Duration
	StepName string
}

// PerformanceTracker records how long pipeline stages take, such as one OCR
// method on one page or one market batch.
type PerformanceTracker struct {
	currentStep *StepTiming
	steps       []*StepTiming
	aggregates  map[string]*StepAggregate
	mu          sync.Mutex
	now         func() time.Time
}

func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{
		steps:      make([]*StepTiming, 0),
		aggregates: make(map[string]*StepAggregate),
		now:        time.Now,
	}
}

// StartStep begins timing a new step nested under the current one.
func (pt *PerformanceTracker) StartStep(name string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	step := &StepTiming{
		Name:      name,
		StartTime: pt.now(),
	}

	if pt.currentStep != nil {
		pt.currentStep.SubSteps = append(pt.currentStep.SubSteps, step)
	} else {
		pt.steps = append(pt.steps, step)
	}
	pt.currentStep = step
}

// EndStep completes timing for the current step
func (pt *PerformanceTracker) EndStep() {
	pt.endStep(false)
}

// FailStep completes the current step and counts it as a failure.
func (pt *PerformanceTracker) FailStep() {
	pt.endStep(true)
}

func (pt *PerformanceTracker) endStep(failed bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.currentStep == nil {
		return
	}
	pt.currentStep.Duration = pt.now().Sub(pt.currentStep.StartTime)
	pt.currentStep.Failed = failed
	pt.addAggregate(pt.currentStep)

	found := false
	for _, step := range pt.steps {
		if found = pt.findParentStep(step, pt.currentStep); found {
			break
		}
	}
	if !found {
		pt.currentStep = nil
	}
}

// Track times fn as a step and marks it failed when fn returns an error.
func (pt *PerformanceTracker) Track(name string, fn func() error) error {
	pt.StartStep(name)
	err := fn()
	if err != nil {
		pt.FailStep()
	} else {
		pt.EndStep()
	}
	return err
}

// findParentStep recursively finds the parent of a step
func (pt *PerformanceTracker) findParentStep(current *StepTiming, target *StepTiming) bool {
	for _, subStep := range current.SubSteps {
		if subStep == target {
			pt.currentStep = current
			return true
		}
		if pt.findParentStep(subStep, target) {
			return true
		}
	}
	return false
}

// Aggregate returns a copy of the aggregate for name.
func (pt *PerformanceTracker) Aggregate(name string) (StepAggregate, bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	agg, ok := pt.aggregates[name]
	if !ok {
		return StepAggregate{}, false
	}
	return *agg, true
}

// GenerateReport creates a formatted performance report
func (pt *PerformanceTracker) GenerateReport() string {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("\n=== Performance Report ===\n")

	for _, step := range pt.steps {
		pt.writeStepReport(&sb, step, 0)
	}

	return sb.String()
}

func (pt *PerformanceTracker) writeStepReport(sb *strings.Builder, step *StepTiming, level int) {
	indent := strings.Repeat("  ", level)
	mark := ""
	if step.Failed {
		mark = " (failed)"
	}
	sb.WriteString(fmt.Sprintf("%s%s: %v%s\n", indent, step.Name, step.Duration.Round(time.Millisecond), mark))

	for _, subStep := range step.SubSteps {
		pt.writeStepReport(sb, subStep, level+1)
	}
}

// addAggregate folds one finished step into the aggregates. Sub-steps were
// already counted when they ended. Caller holds mu.
func (pt *PerformanceTracker) addAggregate(step *StepTiming) {
	agg, exists := pt.aggregates[step.Name]
	if !exists {
		agg = &StepAggregate{
			StepName: step.Name,
			Min:      step.Duration,
			Max:      step.Duration,
		}
		pt.aggregates[step.Name] = agg
	}

	agg.Count++
	if step.Failed {
		agg.Failures++
	}
	agg.Total += step.Duration
	agg.Average = agg.Total / time.Duration(agg.Count)

	if step.Duration < agg.Min {
		agg.Min = step.Duration
	}
	if step.Duration > agg.Max {
		agg.Max = step.Duration
	}
}

// GenerateAggregateReport generates an aggregate performance report
func (pt *PerformanceTracker) GenerateAggregateReport() string {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("\n=== Aggregate Performance Report ===\n")

	var steps []*StepAggregate
	for _, agg := range pt.aggregates {
		steps = append(steps, agg)
	}
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Total == steps[j].Total {
			return steps[i].StepName < steps[j].StepName
		}
		return steps[i].Total > steps[j].Total
	})

	for _, agg := range steps {
		sb.WriteString(fmt.Sprintf(
			"Step: %s\n"+
				"  Count:    %d\n"+
				"  Failures: %d\n"+
				"  Total:    %v\n"+
				"  Average:  %v\n"+
				"  Min:      %v\n"+
				"  Max:      %v\n",
			agg.StepName,
			agg.Count,
			agg.Failures,
			agg.Total.Round(time.Millisecond),
			agg.Average.Round(time.Millisecond),
			agg.Min.Round(time.Millisecond),
			agg.Max.Round(time.Millisecond),
		))
	}

	return sb.String()
}
