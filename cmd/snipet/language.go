package main

import "strings"

// detectLanguage guesses the language of piped code from content patterns.
// It is deliberately rough; the --lang flag overrides it.
func detectLanguage(code string) string {
	lower := strings.ToLower(code)
	trimmed := strings.TrimSpace(code)

	switch {
	case strings.Contains(lower, "def ") && strings.Contains(lower, ":") && !strings.Contains(lower, "{"):
		return "python"
	case strings.Contains(lower, "fn ") && strings.Contains(lower, "->"):
		return "rust"
	case strings.Contains(lower, "func ") && strings.Contains(lower, "package "):
		return "go"
	case strings.Contains(lower, "public class ") || strings.Contains(lower, "private class "):
		return "java"
	case strings.Contains(lower, "namespace ") && strings.Contains(lower, "using "):
		return "csharp"
	case strings.Contains(lower, "#include"):
		return "cpp"
	case strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype"):
		return "html"
	case strings.Contains(lower, "select ") && strings.Contains(lower, "from "):
		return "sql"
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		return "json"
	case strings.Contains(lower, "function ") || strings.Contains(lower, "const ") || strings.Contains(lower, "let "):
		if strings.Contains(lower, ": string") || strings.Contains(lower, ": number") || strings.Contains(lower, "<") {
			return "typescript"
		}
		return "javascript"
	case strings.Contains(lower, "@media"),
		strings.Contains(lower, "{") && strings.Contains(lower, ":") && strings.Contains(lower, ";"):
		return "css"
	default:
		return "javascript"
	}
}
