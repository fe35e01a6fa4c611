package bundle

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/me/phenogen/internal/compose"
	"github.com/me/phenogen/internal/stub"
	"github.com/me/phenogen/pkg/model"
	"github.com/ulikunitz/xz"
	"gopkg.in/yaml.v3"
)

func leaf(position int, name, language, fileName string) model.StepSpec {
	return model.StepSpec{
		Position:       position,
		Name:           name,
		Type:           "logic",
		Inputs:         []model.InputSpec{{Doc: "in"}},
		Outputs:        []model.OutputSpec{{Extension: "csv", Doc: "out"}},
		Implementation: model.Leaf{Language: language, FileName: fileName},
	}
}

func sampleBundle(t *testing.T) *model.Bundle {
	t.Helper()
	steps := []model.StepSpec{
		leaf(1, "Load", "python", "load.py"),
		{
			Position: 2,
			Name:     "Filter",
			Type:     "logic",
			Implementation: model.Nested{Steps: []model.StepSpec{
				leaf(1, "Age", "js", "age.js"),
				leaf(2, "Sex", "knime", "sex.knwf"),
			}},
		},
	}
	res, err := compose.New(stub.NewDispatcher()).Compose(steps, false)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	b, err := Assemble(res)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return b
}

func TestAssemble(t *testing.T) {
	b := sampleBundle(t)

	var inputs map[string]map[string]string
	if err := yaml.Unmarshal([]byte(b.WorkflowInputs), &inputs); err != nil {
		t.Fatalf("unmarshal inputs: %v", err)
	}
	want := map[string]map[string]string{
		"potentialCases": {"class": "File", "path": "replaceMe.csv"},
		"inputModule1":   {"class": "File", "path": "python/load.py"},
		"inputModule2-1": {"class": "File", "path": "js/age.js"},
		"inputModule2-2": {"class": "File", "path": "knime/sex.knwf"},
	}
	if diff := cmp.Diff(want, inputs); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}

	if !strings.HasPrefix(b.Workflow, "cwlVersion: v1.0\nclass: Workflow\n") {
		t.Errorf("workflow header:\n%s", b.Workflow)
	}
	if !strings.Contains(b.Workflow, "SubworkflowFeatureRequirement") {
		t.Error("workflow with a nested step must require subworkflows")
	}
	if len(b.Steps) != 2 || len(b.Steps[1].Steps) != 2 {
		t.Errorf("steps = %+v", b.Steps)
	}
}

func TestAssemble_Nil(t *testing.T) {
	if _, err := Assemble(nil); err == nil {
		t.Fatal("expected error for nil composition")
	}
}

func TestFiles(t *testing.T) {
	files, err := Files(sampleBundle(t))
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	want := []string{"main.cwl", "main.yml", "load.cwl", "filter.cwl", "age.cwl", "sex.cwl"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestFiles_SkipsEmptyContent(t *testing.T) {
	b := &model.Bundle{
		Workflow:       "cwlVersion: v1.0\n",
		WorkflowInputs: "{}\n",
		Steps:          []model.Artifact{{ID: "legacy", Name: "Legacy"}},
	}
	files, err := Files(b)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("files = %d, want 2", len(files))
	}
}

func TestFiles_Collision(t *testing.T) {
	b := &model.Bundle{
		Steps: []model.Artifact{
			{ID: "load", Name: "Load", Content: "a"},
			{ID: "sub", Name: "Sub", Content: "b", Steps: []model.Artifact{
				{ID: "load", Name: "Load", Content: "c"},
			}},
		},
	}
	if _, err := Files(b); err == nil {
		t.Fatal("expected collision error")
	}
}

func TestWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	b := sampleBundle(t)
	if err := WriteDir(b, dir); err != nil {
		t.Fatalf("WriteDir: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "main.yml"))
	if err != nil {
		t.Fatalf("read main.yml: %v", err)
	}
	if string(data) != b.WorkflowInputs {
		t.Errorf("main.yml = %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "sex.cwl")); err != nil {
		t.Errorf("nested leaf not exported: %v", err)
	}
}

func TestWriteArchive_Zip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteArchive(&buf, sampleBundle(t), "cohort", FormatZip); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	want := []string{
		"cohort/age.cwl", "cohort/filter.cwl", "cohort/load.cwl",
		"cohort/main.cwl", "cohort/main.yml", "cohort/sex.cwl",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteArchive_TarXZ(t *testing.T) {
	var buf bytes.Buffer
	b := sampleBundle(t)
	if err := WriteArchive(&buf, b, "cohort", FormatTarXZ); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	xr, err := xz.NewReader(&buf)
	if err != nil {
		t.Fatalf("open xz: %v", err)
	}
	tr := tar.NewReader(xr)
	found := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read tar: %v", err)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("read %s: %v", hdr.Name, err)
		}
		found[hdr.Name] = string(data)
	}
	if len(found) != 6 {
		t.Errorf("entries = %d, want 6", len(found))
	}
	if found["cohort/main.cwl"] != b.Workflow {
		t.Error("main.cwl content mismatch")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatZip, false},
		{"zip", FormatZip, false},
		{"tar.xz", FormatTarXZ, false},
		{"rar", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestPack(t *testing.T) {
	packed, err := Pack(sampleBundle(t))
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(packed, &doc); err != nil {
		t.Fatalf("unmarshal packed: %v", err)
	}
	if doc["cwlVersion"] != "v1.0" {
		t.Errorf("cwlVersion = %v", doc["cwlVersion"])
	}
	graph, ok := doc["$graph"].([]any)
	if !ok {
		t.Fatal("expected $graph array")
	}
	if len(graph) != 5 {
		t.Fatalf("$graph length = %d, want 5", len(graph))
	}

	byID := map[string]map[string]any{}
	for _, entry := range graph {
		m := entry.(map[string]any)
		id, _ := m["id"].(string)
		byID[id] = m
		if _, ok := m["cwlVersion"]; ok {
			t.Errorf("%s keeps cwlVersion", id)
		}
	}
	for _, id := range []string{"main", "load", "filter", "age", "sex"} {
		if byID[id] == nil {
			t.Errorf("missing %s in $graph", id)
		}
	}

	mainSteps := byID["main"]["steps"].(map[string]any)
	if run := mainSteps["filter"].(map[string]any)["run"]; run != "#filter" {
		t.Errorf("main filter run = %v, want #filter", run)
	}
	filterSteps := byID["filter"]["steps"].(map[string]any)
	if run := filterSteps["sex"].(map[string]any)["run"]; run != "#sex" {
		t.Errorf("filter sex run = %v, want #sex", run)
	}
}

func TestExport_NamesRepeatedAcrossLevels(t *testing.T) {
	tests := []struct {
		name    string
		steps   []model.StepSpec
		wantIDs []string
	}{
		{
			"same name at two levels",
			[]model.StepSpec{
				leaf(1, "Load", "python", "load.py"),
				{Position: 2, Name: "Cohort", Type: "logic", Implementation: model.Nested{Steps: []model.StepSpec{
					leaf(1, "Load", "js", "load.js"),
				}}},
			},
			[]string{"load", "cohort", "load-1"},
		},
		{
			"nested step named like its child",
			[]model.StepSpec{
				{Position: 1, Name: "Filter", Type: "logic", Implementation: model.Nested{Steps: []model.StepSpec{
					leaf(1, "Filter", "js", "filter.js"),
				}}},
			},
			[]string{"filter", "filter-1"},
		},
		{
			"step named main",
			[]model.StepSpec{leaf(1, "Main", "python", "main.py")},
			[]string{"main-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := compose.New(stub.NewDispatcher()).Compose(tt.steps, false)
			if err != nil {
				t.Fatalf("Compose: %v", err)
			}
			b, err := Assemble(res)
			if err != nil {
				t.Fatalf("Assemble: %v", err)
			}

			var ids []string
			var walk func([]model.Artifact)
			walk = func(arts []model.Artifact) {
				for _, a := range arts {
					ids = append(ids, a.ID)
					walk(a.Steps)
				}
			}
			walk(b.Steps)
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}

			files, err := Files(b)
			if err != nil {
				t.Fatalf("Files: %v", err)
			}
			if len(files) != len(tt.wantIDs)+2 {
				t.Errorf("got %d files, want %d", len(files), len(tt.wantIDs)+2)
			}
			if _, err := Pack(b); err != nil {
				t.Fatalf("Pack: %v", err)
			}
			if err := WriteArchive(io.Discard, b, "cohort", FormatZip); err != nil {
				t.Fatalf("WriteArchive: %v", err)
			}

			// No sub-workflow may run its own document.
			for _, a := range b.Steps {
				if !a.IsNested() {
					continue
				}
				var doc map[string]any
				if err := yaml.Unmarshal([]byte(a.Content), &doc); err != nil {
					t.Fatalf("unmarshal %s: %v", a.ID, err)
				}
				for id, s := range doc["steps"].(map[string]any) {
					if run := s.(map[string]any)["run"]; run == a.ID+".cwl" {
						t.Errorf("step %s inside %s runs its parent document", id, a.ID)
					}
				}
			}
		})
	}
}
