package checker

// ParseModVersion exposes the version parser to external tests.
var ParseModVersion = parseModVersion
