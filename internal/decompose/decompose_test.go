package decompose

import (
	"testing"

	"github.com/harkvoice/hark/pkg/models"
)

func TestDecompose_NoConnector(t *testing.T) {
	tasks := Decompose("  open safari  ")

	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].ID != "task_0" {
		t.Errorf("ID = %q, want %q", tasks[0].ID, "task_0")
	}
	if tasks[0].Instruction != "open safari" {
		t.Errorf("Instruction = %q, want %q", tasks[0].Instruction, "open safari")
	}
	if tasks[0].Kind != models.TaskKindParallel {
		t.Errorf("Kind = %q, want parallel", tasks[0].Kind)
	}
	if len(tasks[0].DependsOn) != 0 {
		t.Errorf("DependsOn = %v, want none", tasks[0].DependsOn)
	}
}

func TestDecompose_SequentialPair(t *testing.T) {
	tasks := Decompose("open safari then check email")

	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Instruction != "open safari" {
		t.Errorf("task_0 instruction = %q, want %q", tasks[0].Instruction, "open safari")
	}
	if tasks[0].Kind != models.TaskKindParallel {
		t.Errorf("task_0 kind = %q, want parallel", tasks[0].Kind)
	}
	if tasks[1].Instruction != "check email" {
		t.Errorf("task_1 instruction = %q, want %q", tasks[1].Instruction, "check email")
	}
	if tasks[1].Kind != models.TaskKindSequential {
		t.Errorf("task_1 kind = %q, want sequential", tasks[1].Kind)
	}
	if len(tasks[1].DependsOn) != 1 || tasks[1].DependsOn[0] != "task_0" {
		t.Errorf("task_1 DependsOn = %v, want [task_0]", tasks[1].DependsOn)
	}
}

func TestDecompose_ParallelOnly(t *testing.T) {
	tasks := Decompose("open safari and check email and play music")

	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	for i, task := range tasks {
		if task.Kind != models.TaskKindParallel {
			t.Errorf("task_%d kind = %q, want parallel", i, task.Kind)
		}
		if len(task.DependsOn) != 0 {
			t.Errorf("task_%d DependsOn = %v, want none", i, task.DependsOn)
		}
	}
}

func TestDecompose_MixedConnectors(t *testing.T) {
	tasks := Decompose("open safari and check email then write a report")

	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}

	// The middle segment takes the kind of the connector that follows it,
	// so "check email" is sequential here even though it was introduced by
	// "and". Observed splitting behavior, kept as-is.
	if tasks[1].Kind != models.TaskKindSequential {
		t.Errorf("task_1 kind = %q, want sequential", tasks[1].Kind)
	}
	if len(tasks[1].DependsOn) != 1 || tasks[1].DependsOn[0] != "task_0" {
		t.Errorf("task_1 DependsOn = %v, want [task_0]", tasks[1].DependsOn)
	}
	if tasks[2].Kind != models.TaskKindSequential {
		t.Errorf("task_2 kind = %q, want sequential", tasks[2].Kind)
	}
	if len(tasks[2].DependsOn) != 1 || tasks[2].DependsOn[0] != "task_1" {
		t.Errorf("task_2 DependsOn = %v, want [task_1]", tasks[2].DependsOn)
	}
}

func TestDecompose_ParallelAfterSequential(t *testing.T) {
	tasks := Decompose("build the slides then send them and play music")

	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	// "play music" follows the last connector "and": parallel, independent
	// even though an explicitly ordered task precedes it.
	if tasks[2].Kind != models.TaskKindParallel {
		t.Errorf("task_2 kind = %q, want parallel", tasks[2].Kind)
	}
	if len(tasks[2].DependsOn) != 0 {
		t.Errorf("task_2 DependsOn = %v, want none", tasks[2].DependsOn)
	}
}

func TestDecompose_WordBoundary(t *testing.T) {
	// "and" inside "android" must not split.
	tasks := Decompose("open android studio")

	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Instruction != "open android studio" {
		t.Errorf("Instruction = %q, want full text", tasks[0].Instruction)
	}
}

func TestDecompose_CaseInsensitive(t *testing.T) {
	tasks := Decompose("open safari THEN check email")

	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[1].Kind != models.TaskKindSequential {
		t.Errorf("task_1 kind = %q, want sequential", tasks[1].Kind)
	}
}

func TestDecompose_AbuttingConnectorsDropEmptySegment(t *testing.T) {
	tasks := Decompose("open safari and then check email")

	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d: %+v", len(tasks), tasks)
	}
	if tasks[0].Instruction != "open safari" {
		t.Errorf("task_0 instruction = %q, want %q", tasks[0].Instruction, "open safari")
	}
	if tasks[1].Instruction != "check email" {
		t.Errorf("task_1 instruction = %q, want %q", tasks[1].Instruction, "check email")
	}
	if tasks[1].Kind != models.TaskKindSequential {
		t.Errorf("task_1 kind = %q, want sequential", tasks[1].Kind)
	}
	if len(tasks[1].DependsOn) != 1 || tasks[1].DependsOn[0] != "task_0" {
		t.Errorf("task_1 DependsOn = %v, want [task_0]", tasks[1].DependsOn)
	}
}

func TestDecompose_LeadingConnector(t *testing.T) {
	tasks := Decompose("then open safari")

	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Instruction != "open safari" {
		t.Errorf("Instruction = %q, want %q", tasks[0].Instruction, "open safari")
	}
	// The final-segment rule applies even at position zero, but a task at
	// position zero never gains a dependency.
	if tasks[0].Kind != models.TaskKindSequential {
		t.Errorf("Kind = %q, want sequential", tasks[0].Kind)
	}
	if len(tasks[0].DependsOn) != 0 {
		t.Errorf("DependsOn = %v, want none", tasks[0].DependsOn)
	}
}

func TestDecompose_ConnectorOnly(t *testing.T) {
	tasks := Decompose("and")

	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Instruction != "and" {
		t.Errorf("Instruction = %q, want %q", tasks[0].Instruction, "and")
	}
	if tasks[0].Kind != models.TaskKindParallel {
		t.Errorf("Kind = %q, want parallel", tasks[0].Kind)
	}
}

func TestDecompose_OnceDonePhrase(t *testing.T) {
	tasks := Decompose("once the build is done deploy the app")

	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d: %+v", len(tasks), tasks)
	}
	if tasks[0].Instruction != "deploy the app" {
		t.Errorf("Instruction = %q, want %q", tasks[0].Instruction, "deploy the app")
	}
	if tasks[0].Kind != models.TaskKindSequential {
		t.Errorf("Kind = %q, want sequential", tasks[0].Kind)
	}
}

func TestDecompose_IDsAreDense(t *testing.T) {
	tasks := Decompose("open safari and then check email then reply")

	want := []string{"task_0", "task_1", "task_2"}
	if len(tasks) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(tasks))
	}
	for i, task := range tasks {
		if task.ID != want[i] {
			t.Errorf("tasks[%d].ID = %q, want %q", i, task.ID, want[i])
		}
	}
}

func TestDecompose_AlwaysAcyclic(t *testing.T) {
	instructions := []string{
		"open safari",
		"open safari then check email",
		"a and b and c then d then e and f",
		"write the doc then once that is done send it and relax",
		"and then next after",
	}

	for _, instruction := range instructions {
		tasks := Decompose(instruction)
		if len(tasks) == 0 {
			t.Errorf("Decompose(%q) returned no tasks", instruction)
			continue
		}
		if err := ValidateTasks(tasks); err != nil {
			t.Errorf("Decompose(%q) produced invalid batch: %v", instruction, err)
		}
	}
}

func TestValidateTasks_UnknownDependency(t *testing.T) {
	tasks := []*models.Task{
		{ID: "task_0", Instruction: "a", Kind: models.TaskKindParallel},
		{ID: "task_1", Instruction: "b", Kind: models.TaskKindSequential, DependsOn: []string{"task_9"}},
	}

	if err := ValidateTasks(tasks); err == nil {
		t.Error("expected error for unknown dependency, got nil")
	}
}

func TestValidateTasks_SelfDependency(t *testing.T) {
	tasks := []*models.Task{
		{ID: "task_0", Instruction: "a", Kind: models.TaskKindSequential, DependsOn: []string{"task_0"}},
	}

	if err := ValidateTasks(tasks); err == nil {
		t.Error("expected error for self dependency, got nil")
	}
}

func TestValidateTasks_Cycle(t *testing.T) {
	tasks := []*models.Task{
		{ID: "task_0", Instruction: "a", Kind: models.TaskKindSequential, DependsOn: []string{"task_1"}},
		{ID: "task_1", Instruction: "b", Kind: models.TaskKindSequential, DependsOn: []string{"task_0"}},
	}

	if err := ValidateTasks(tasks); err == nil {
		t.Error("expected error for cycle, got nil")
	}
}
