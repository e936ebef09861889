// Package decompose splits a raw instruction into atomic tasks with
// dependency edges, based on the connector phrases the speaker used.
package decompose

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/harkvoice/hark/pkg/models"
)

// Connector phrases are matched case-insensitively on word boundaries.
// Parallel connectors introduce segments with no ordering requirement;
// sequential connectors introduce segments that wait on the previous one.
var (
	parallelPatterns = compilePatterns(
		`\band\b`,
		`\balso\b`,
		`\bwhile you'?re doing that\b`,
		`\bat the same time\b`,
		`\bmeanwhile\b`,
	)

	sequentialPatterns = compilePatterns(
		`\bthen\b`,
		`\bafter\b`,
		`\bonce\b.*\bdone\b`,
		`\bwhen\b.*\bfinished\b`,
		`\bnext\b`,
		`\bfollowed by\b`,
	)
)

func compilePatterns(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(`(?i)` + p)
	}
	return compiled
}

// connectorMatch is one connector occurrence within the instruction.
type connectorMatch struct {
	start int
	end   int
	kind  models.TaskKind
}

// segment is one surviving piece of the instruction after cutting.
type segment struct {
	text string
	kind models.TaskKind
}

// Decompose splits one instruction into an ordered list of tasks.
//
// If the instruction contains no connector phrase it becomes a single
// parallel task with no dependencies. Otherwise the string is cut at every
// connector occurrence (the connector text itself is discarded): a segment
// takes the kind of the connector that follows it, the final segment takes
// the kind of the last connector, and the first surviving segment cut
// before a connector is always parallel. A sequential task at position i
// depends on the task at position i-1; parallel tasks carry no
// dependencies even when they follow a sequential one. Segments that are
// empty after trimming are dropped, and IDs are assigned as task_0,
// task_1, ... over the survivors in textual order.
func Decompose(instruction string) []*models.Task {
	text := strings.TrimSpace(instruction)

	matches := findConnectors(text)
	if len(matches) == 0 {
		return []*models.Task{singleTask(text)}
	}

	segments := cutSegments(text, matches)
	tasks := make([]*models.Task, 0, len(segments))
	for i, seg := range segments {
		task := &models.Task{
			ID:          fmt.Sprintf("task_%d", i),
			Instruction: seg.text,
			Kind:        seg.kind,
		}
		if seg.kind == models.TaskKindSequential && i > 0 {
			task.DependsOn = []string{fmt.Sprintf("task_%d", i-1)}
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func singleTask(text string) *models.Task {
	return &models.Task{
		ID:          "task_0",
		Instruction: text,
		Kind:        models.TaskKindParallel,
	}
}

// findConnectors locates every connector occurrence across the whole
// string, parallel sets first, and sorts them by start offset. The sort is
// stable so ties keep parallel matches ahead of sequential ones.
func findConnectors(text string) []connectorMatch {
	var found []connectorMatch
	for _, re := range parallelPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			found = append(found, connectorMatch{start: loc[0], end: loc[1], kind: models.TaskKindParallel})
		}
	}
	for _, re := range sequentialPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			found = append(found, connectorMatch{start: loc[0], end: loc[1], kind: models.TaskKindSequential})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].start < found[j].start })
	return found
}

// cutSegments cuts the instruction at each connector occurrence.
// Overlapping matches are not deduplicated: a connector starting inside the
// span already consumed contributes no segment but still advances (or
// rewinds) the cut position, so abutting connectors can swallow a segment.
// That segment is silently dropped.
func cutSegments(text string, matches []connectorMatch) []segment {
	var segments []segment

	lastEnd := 0
	for _, m := range matches {
		if m.start > lastEnd {
			piece := strings.TrimSpace(text[lastEnd:m.start])
			if piece != "" {
				kind := m.kind
				if len(segments) == 0 {
					kind = models.TaskKindParallel
				}
				segments = append(segments, segment{text: piece, kind: kind})
			}
		}
		lastEnd = m.end
	}

	if lastEnd < len(text) {
		piece := strings.TrimSpace(text[lastEnd:])
		if piece != "" {
			segments = append(segments, segment{text: piece, kind: matches[len(matches)-1].kind})
		}
	}

	if len(segments) == 0 {
		return []segment{{text: text, kind: models.TaskKindParallel}}
	}
	return segments
}

// ValidateTasks checks the invariants every decomposition batch must hold:
// dependencies reference tasks within the batch, no task depends on itself,
// and the dependency relation is acyclic.
func ValidateTasks(tasks []*models.Task) error {
	idToTask := make(map[string]*models.Task)
	for _, task := range tasks {
		idToTask[task.ID] = task
	}

	for _, task := range tasks {
		for _, depID := range task.DependsOn {
			if depID == task.ID {
				return fmt.Errorf("task %s depends on itself", task.ID)
			}
			if _, ok := idToTask[depID]; !ok {
				return fmt.Errorf("task %s depends on unknown task %s", task.ID, depID)
			}
		}
	}

	state := make(map[string]int) // 0=unvisited, 1=visiting, 2=visited

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		if state[id] == 2 {
			return nil
		}
		if state[id] == 1 {
			cycleStart := 0
			for i, p := range path {
				if p == id {
					cycleStart = i
					break
				}
			}
			cycle := append(path[cycleStart:], id)
			return fmt.Errorf("circular dependency detected: %s", strings.Join(cycle, " -> "))
		}

		state[id] = 1
		task := idToTask[id]
		if task != nil {
			for _, depID := range task.DependsOn {
				if err := visit(depID, append(path, id)); err != nil {
					return err
				}
			}
		}
		state[id] = 2
		return nil
	}

	for _, task := range tasks {
		if state[task.ID] == 0 {
			if err := visit(task.ID, nil); err != nil {
				return err
			}
		}
	}

	return nil
}
