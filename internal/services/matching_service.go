package services

import (
	"math"
	"strings"
	"unicode"
)

// MatchResult is the outcome of scoring one resume against one job.
type MatchResult struct {
	Score    float64  `json:"score"`
	Matching []string `json:"matching"`
	Missing  []string `json:"missing"`
}

// MatchInput holds the pieces the scorer needs from a resume and a job.
type MatchInput struct {
	ResumeText      string
	ResumeSkills    []string
	RequiredSkills  []string
	PreferredSkills []string
	JobText         string
}

const (
	weightRequired  = 0.7
	weightPreferred = 0.2
	weightKeywords  = 0.1
)

var skillAliases = map[string]string{
	"golang":     "go",
	"js":         "javascript",
	"ts":         "typescript",
	"k8s":        "kubernetes",
	"postgresql": "postgres",
	"node":       "node.js",
	"nodejs":     "node.js",
	"reactjs":    "react",
}

// stopWords are dropped from keyword sets before the overlap is computed.
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"work": true, "team": true, "role": true, "job": true, "join": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "new": true,
	"use": true, "using": true, "used": true, "well": true, "able": true,
	"an": true, "as": true, "at": true, "be": true, "by": true, "in": true,
	"is": true, "it": true, "of": true, "on": true, "or": true, "to": true,
	"we": true, "us": true, "a": true, "i": true,
}

// MatcherService scores resumes against job requirements.
type MatcherService struct{}

func NewMatcherService() *MatcherService {
	return &MatcherService{}
}

// Score weights required-skill coverage, preferred-skill coverage and a
// keyword Jaccard overlap into a 0-100 score rounded to one decimal.
func (s *MatcherService) Score(in MatchInput) MatchResult {
	resumeKW := Keywords(in.ResumeText)
	resumeSkills := make(map[string]bool, len(in.ResumeSkills))
	for _, skill := range in.ResumeSkills {
		if n := NormalizeSkill(skill); n != "" {
			resumeSkills[n] = true
			resumeKW[n] = true
		}
	}

	has := func(skill string) bool {
		n := NormalizeSkill(skill)
		if resumeSkills[n] {
			return true
		}
		// Tokens go through the same aliasing as the resume keywords.
		tokens := Keywords(n)
		if len(tokens) == 0 {
			return false
		}
		for tok := range tokens {
			if !resumeKW[tok] {
				return false
			}
		}
		return true
	}

	res := MatchResult{Matching: []string{}, Missing: []string{}}
	seen := map[string]bool{}
	cover := func(skills []string) (float64, bool) {
		total, hit := 0, 0
		var missing []string
		for _, skill := range skills {
			n := NormalizeSkill(skill)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			total++
			if has(skill) {
				hit++
				res.Matching = append(res.Matching, n)
			} else {
				missing = append(missing, n)
			}
		}
		res.Missing = append(res.Missing, missing...)
		if total == 0 {
			return 0, false
		}
		return float64(hit) / float64(total), true
	}

	reqCov, hasReq := cover(in.RequiredSkills)
	prefCov, hasPref := cover(in.PreferredSkills)

	jobKW := Keywords(in.JobText)
	for _, skill := range append(append([]string{}, in.RequiredSkills...), in.PreferredSkills...) {
		if n := NormalizeSkill(skill); n != "" {
			jobKW[n] = true
		}
	}
	jaccard := Jaccard(resumeKW, jobKW)

	var raw float64
	switch {
	case hasReq && hasPref:
		raw = weightRequired*reqCov + weightPreferred*prefCov + weightKeywords*jaccard
	case hasReq:
		raw = (weightRequired+weightPreferred)*reqCov + weightKeywords*jaccard
	case hasPref:
		raw = (weightRequired+weightPreferred)*prefCov + weightKeywords*jaccard
	default:
		raw = jaccard
	}

	res.Score = roundScore(raw * 100)
	return res
}

// NormalizeSkill lowercases, collapses whitespace and resolves aliases.
func NormalizeSkill(skill string) string {
	n := strings.Join(strings.Fields(strings.ToLower(skill)), " ")
	if alias, ok := skillAliases[n]; ok {
		return alias
	}
	return n
}

// Keywords tokenizes text into a lowercase keyword set without stop words.
func Keywords(text string) map[string]bool {
	kw := make(map[string]bool)
	for _, tok := range tokenize(text) {
		if alias, ok := skillAliases[tok]; ok {
			tok = alias
		}
		kw[tok] = true
	}
	return kw
}

// tokenize keeps + # . inside words so "c++", "c#" and "node.js" survive.
func tokenize(text string) []string {
	var out []string
	var word strings.Builder
	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if len([]rune(w)) >= 2 && !stopWords[w] {
			out = append(out, w)
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when both are empty.
func Jaccard(a, b map[string]bool) float64 {
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func roundScore(v float64) float64 {
	v = math.Round(v*10) / 10
	return math.Max(0, math.Min(100, v))
}

var knownSkills = map[string]bool{
	"go": true, "python": true, "java": true, "javascript": true, "typescript": true,
	"rust": true, "c++": true, "c#": true, "ruby": true, "php": true, "kotlin": true,
	"swift": true, "scala": true, "sql": true, "postgres": true, "mysql": true,
	"mongodb": true, "redis": true, "kafka": true, "rabbitmq": true, "docker": true,
	"kubernetes": true, "aws": true, "gcp": true, "azure": true, "terraform": true,
	"react": true, "vue": true, "angular": true, "node.js": true, "graphql": true,
	"grpc": true, "linux": true, "git": true, "html": true, "css": true,
	"django": true, "flask": true, "spring": true, "rails": true, "elasticsearch": true,
	"spark": true, "airflow": true, "pandas": true, "pytorch": true, "tensorflow": true,
	"figma": true, "jira": true, "excel": true, "tableau": true, "salesforce": true,
}

// DetectSkills lists known skill names mentioned in text, in order of first mention.
func DetectSkills(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, tok := range tokenize(text) {
		if alias, ok := skillAliases[tok]; ok {
			tok = alias
		}
		if knownSkills[tok] && !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
