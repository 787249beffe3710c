package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreWeightsRequiredPreferredAndKeywords(t *testing.T) {
	m := NewMatcherService()

	res := m.Score(MatchInput{
		ResumeText:      "Built services in Go and PostgreSQL on Kubernetes",
		ResumeSkills:    []string{"golang", "Docker"},
		RequiredSkills:  []string{"Go", "PostgreSQL", "Rust"},
		PreferredSkills: []string{"k8s", "GraphQL"},
	})

	// 0.7*(2/3) + 0.2*(1/2) + 0.1*(3/8)
	assert.Equal(t, 60.4, res.Score)
	assert.Equal(t, []string{"go", "postgres", "kubernetes"}, res.Matching)
	assert.Equal(t, []string{"rust", "graphql"}, res.Missing)
}

func TestScoreKeywordsOnlyWithoutSkills(t *testing.T) {
	res := NewMatcherService().Score(MatchInput{
		ResumeText: "go rust",
		JobText:    "go python",
	})
	assert.Equal(t, 33.3, res.Score)
	assert.Empty(t, res.Matching)
	assert.Empty(t, res.Missing)
}

func TestScoreSingleListTakesBothWeights(t *testing.T) {
	res := NewMatcherService().Score(MatchInput{
		ResumeSkills:    []string{"go"},
		PreferredSkills: []string{"Go"},
	})
	assert.Equal(t, 100.0, res.Score)
}

func TestScoreDeduplicatesAcrossLists(t *testing.T) {
	res := NewMatcherService().Score(MatchInput{
		ResumeSkills:    []string{"Go"},
		RequiredSkills:  []string{"Go"},
		PreferredSkills: []string{"golang"},
	})
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, []string{"go"}, res.Matching)
}

func TestScoreEmpty(t *testing.T) {
	res := NewMatcherService().Score(MatchInput{})
	assert.Zero(t, res.Score)
	assert.NotNil(t, res.Matching)
	assert.NotNil(t, res.Missing)
}

func TestScoreMultiWordSkillFromText(t *testing.T) {
	res := NewMatcherService().Score(MatchInput{
		ResumeText:     "I do machine learning daily",
		RequiredSkills: []string{"Machine  Learning"},
	})
	assert.Equal(t, []string{"machine learning"}, res.Matching)
	assert.Empty(t, res.Missing)
}

func TestKeywordsKeepsTechTokens(t *testing.T) {
	kw := Keywords("C++, C# and Node.js. Also the JS/TS stack on k8s.")
	for _, want := range []string{"c++", "c#", "node.js", "javascript", "typescript", "kubernetes", "stack"} {
		assert.True(t, kw[want], "missing %q", want)
	}
	for _, stop := range []string{"and", "also", "the", "on"} {
		assert.False(t, kw[stop], "stop word %q kept", stop)
	}
}

func TestNormalizeSkill(t *testing.T) {
	assert.Equal(t, "go", NormalizeSkill("  Golang "))
	assert.Equal(t, "machine learning", NormalizeSkill("Machine\tLearning"))
	assert.Equal(t, "", NormalizeSkill("   "))
}

func TestJaccard(t *testing.T) {
	assert.Zero(t, Jaccard(map[string]bool{}, map[string]bool{}))
	assert.Equal(t, 0.5, Jaccard(map[string]bool{"a": true, "b": true}, map[string]bool{"b": true, "c": true, "a": true, "d": true}))
}

func TestDetectSkills(t *testing.T) {
	got := DetectSkills("Senior engineer: Golang, Postgres, AWS and k8s. More Go and React work.")
	assert.Equal(t, []string{"go", "postgres", "aws", "kubernetes", "react"}, got)
	assert.Empty(t, DetectSkills("nothing technical here"))
}

func TestScoreMatchesAliasedTokensInMultiWordSkills(t *testing.T) {
	res := NewMatcherService().Score(MatchInput{
		ResumeText:     "Built golang microservices for five years",
		RequiredSkills: []string{"Golang microservices"},
	})

	assert.Equal(t, []string{"golang microservices"}, res.Matching)
	assert.Empty(t, res.Missing)
	assert.Equal(t, 90.0, res.Score)
}
