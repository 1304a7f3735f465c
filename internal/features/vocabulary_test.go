package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchSkillsExactAndAlias(t *testing.T) {
	vocab := NewVocabulary()
	skills := "Python, MySQL, k8s, Terraform"

	matched := vocab.MatchSkills(skills, skills)

	assert.Equal(t, confidenceExact, matched["python"])
	assert.Equal(t, confidenceAlias, matched["sql"], "mysql resolves to the sql entry")
	assert.Equal(t, confidenceAlias, matched["kubernetes"])
	assert.Equal(t, confidenceExact, matched["terraform"])
}

func TestMatchSkillsWordBoundaries(t *testing.T) {
	vocab := NewVocabulary()
	skills := "JavaScript, C++"

	matched := vocab.MatchSkills(skills, skills)

	assert.Contains(t, matched, "javascript")
	assert.Contains(t, matched, "c++")
	assert.NotContains(t, matched, "java", "java must not match inside javascript")
	assert.NotContains(t, matched, "c#")
}

func TestMatchSkillsBodyFallback(t *testing.T) {
	vocab := NewVocabulary()
	skills := "Python"
	body := "Python\nBuilt deployment tooling around Docker and Terraform."

	matched := vocab.MatchSkills(skills, body)

	assert.Equal(t, confidenceExact, matched["python"])
	assert.Equal(t, confidenceBody, matched["docker"])
	assert.Equal(t, confidenceBody, matched["terraform"])
}

func TestMatchSkillsFuzzyTypo(t *testing.T) {
	vocab := NewVocabulary()

	matched := vocab.MatchSkills("Pythn, Kubernetis", "")

	assert.Equal(t, confidenceFuzzy, matched["python"], "one edit for a 6-rune skill")
	assert.Equal(t, confidenceFuzzy, matched["kubernetes"], "two edits allowed from 8 runes")
}

func TestMatchSkillsFuzzyRejectsShortTokens(t *testing.T) {
	vocab := NewVocabulary()

	matched := vocab.MatchSkills("gol, jav", "")

	assert.NotContains(t, matched, "go", "short names require an exact match")
	assert.NotContains(t, matched, "java")
}

func TestMatchSkillsArabicAlias(t *testing.T) {
	vocab := NewVocabulary()

	matched := vocab.MatchSkills("بايثون، إدارة المشاريع", "")

	assert.Equal(t, confidenceAlias, matched["python"])
	assert.Equal(t, confidenceAlias, matched["project management"])
}

func TestContainsPhrase(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		phrase string
		want   bool
	}{
		{"standalone word", "skilled in python and sql", "python", true},
		{"inside longer token", "javascript only", "java", false},
		{"symbol name", "c++ and go", "c++", true},
		{"at string edges", "python", "python", true},
		{"multi word", "strong project management record", "project management", true},
		{"missing", "nothing relevant here", "docker", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, containsPhrase(tc.text, tc.phrase))
		})
	}
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("python, node.js c++ c# (docker)")

	assert.Equal(t, []string{"python", "node.js", "c++", "c#", "docker"}, tokens)
}
