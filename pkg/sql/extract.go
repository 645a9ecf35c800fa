// Package sql provides SQL extraction and validation utilities for
// model-generated queries.
package sql

import (
	"regexp"
	"strings"
)

var (
	// codeBlockPattern matches fenced code blocks, optionally tagged "sql".
	codeBlockPattern = regexp.MustCompile("(?is)```(?:sql)?\\s*(.*?)```")

	// selectPattern matches a SELECT statement through the first semicolon
	// or end of text.
	selectPattern = regexp.MustCompile(`(?is)(SELECT\s+.*?(?:;|$))`)

	// statementBoundaryPattern matches a semicolon followed by whitespace and
	// a new statement keyword. Models occasionally emit several statements;
	// only the first is kept.
	statementBoundaryPattern = regexp.MustCompile(`(?i)^;\s*(?:SELECT|WITH|INSERT|UPDATE|DELETE)\b`)
)

// ExtractStatement pulls a single SQL statement out of raw model output.
// Extraction priority:
//  1. fenced code block content
//  2. a SELECT statement found anywhere in the text
//  3. the whole trimmed text, if it starts with SELECT
//
// Multiple statements are reduced to the first, and a trailing semicolon is
// stripped. Returns "" when no statement can be extracted.
func ExtractStatement(text string) string {
	var sql string

	if m := codeBlockPattern.FindStringSubmatch(text); m != nil {
		sql = strings.TrimSpace(m[1])
	} else if m := selectPattern.FindStringSubmatch(text); m != nil {
		sql = strings.TrimSpace(m[1])
	} else if trimmed := strings.TrimSpace(text); strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		sql = trimmed
	}

	if sql == "" {
		return ""
	}

	return FirstStatement(sql)
}

// FirstStatement keeps only the text before the first statement boundary
// (a semicolon followed by a new statement keyword) and strips a single
// trailing semicolon. Semicolons inside string literals do not count as
// boundaries.
func FirstStatement(sql string) string {
	if loc := findStatementBoundary(sql); loc >= 0 {
		sql = sql[:loc]
	}

	sql = strings.TrimSpace(sql)
	sql = strings.TrimSuffix(sql, ";")
	return strings.TrimSpace(sql)
}

// findStatementBoundary returns the index of the first semicolon that starts
// a new statement, or -1. String literals are skipped so that values like
// 'a; select b' are not treated as boundaries.
func findStatementBoundary(sql string) int {
	inSingle := false
	inDouble := false

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == ';':
			if statementBoundaryPattern.MatchString(sql[i:]) {
				return i
			}
		}
	}

	return -1
}
