package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// taskDescriptorFrontMatter is the key-value front matter accepted atop a
// task descriptor markdown file (spec.md §6 "Task descriptor key-value
// fields"). All fields are optional and best-effort; unknown fields are
// tolerated (unlike the workflow loader's strict decode) because these
// files are authored narratively, not machine-generated.
type taskDescriptorFrontMatter struct {
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`

	ParallelGroup  int    `yaml:"parallel_group"`
	ParallelGroup2 int    `yaml:"parallelGroup"`
	Dependencies   []string `yaml:"dependencies"`
	Deps           []string `yaml:"deps"`

	Files              []string `yaml:"files"`
	AcceptanceCriteria []string `yaml:"acceptance_criteria"`
	AcceptanceCriteria2 []string `yaml:"acceptanceCriteria"`

	Estimate string `yaml:"estimate"`
	Priority string `yaml:"priority"`
	Phase    string `yaml:"phase"`

	Requirements         []string `yaml:"requirements"`
	BusinessRules        []string `yaml:"business_rules"`
	BusinessRules2       []string `yaml:"businessRules"`
	TestingRequirements  []string `yaml:"testing_requirements"`
	TestingRequirements2 []string `yaml:"testingRequirements"`
	Skills               []string `yaml:"skills"`
}

// ParsedTaskDescriptor is the best-effort-normalised result of parsing a
// task descriptor file: aliases are folded into a single field each.
type ParsedTaskDescriptor struct {
	Name                string
	Description         string
	Status              string
	ParallelGroup       int
	Dependencies        []string
	Files               []string
	AcceptanceCriteria  []string
	Estimate            string
	Priority            string
	Phase               string
	Requirements        []string
	BusinessRules       []string
	TestingRequirements []string
	Skills              []string
}

const frontMatterDelim = "---"

// ParseTaskDescriptor extracts YAML front matter from a markdown task
// descriptor. Returns ok=false if the file has no front-matter block,
// signalling the caller should fall back to a minimal directory-derived
// record (spec.md §4.1 step 3).
func ParseTaskDescriptor(data []byte) (desc ParsedTaskDescriptor, ok bool, err error) {
	text := string(data)
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontMatterDelim {
		return ParsedTaskDescriptor{}, false, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontMatterDelim {
			end = i
			break
		}
	}
	if end == -1 {
		return ParsedTaskDescriptor{}, false, fmt.Errorf("task descriptor: unterminated front matter")
	}

	block := strings.Join(lines[1:end], "\n")

	dec := yaml.NewDecoder(bytes.NewReader([]byte(block)))
	var fm taskDescriptorFrontMatter
	if err := dec.Decode(&fm); err != nil {
		return ParsedTaskDescriptor{}, true, fmt.Errorf("task descriptor: parse front matter: %w", err)
	}

	rest := strings.TrimSpace(strings.Join(lines[end+1:], "\n"))

	desc = ParsedTaskDescriptor{
		Name:                firstNonEmpty(fm.Name, fm.Title),
		Description:         firstNonEmpty(fm.Description, rest),
		Status:              fm.Status,
		ParallelGroup:       maxInt(fm.ParallelGroup, fm.ParallelGroup2),
		Dependencies:        firstNonEmptySlice(fm.Dependencies, fm.Deps),
		Files:               fm.Files,
		AcceptanceCriteria:  firstNonEmptySlice(fm.AcceptanceCriteria, fm.AcceptanceCriteria2),
		Estimate:            fm.Estimate,
		Priority:            fm.Priority,
		Phase:               fm.Phase,
		Requirements:        fm.Requirements,
		BusinessRules:       firstNonEmptySlice(fm.BusinessRules, fm.BusinessRules2),
		TestingRequirements: firstNonEmptySlice(fm.TestingRequirements, fm.TestingRequirements2),
		Skills:              fm.Skills,
	}
	return desc, true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptySlice(slices ...[]string) []string {
	for _, s := range slices {
		if len(s) > 0 {
			return s
		}
	}
	return nil
}

func maxInt(values ...int) int {
	max := 0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}
