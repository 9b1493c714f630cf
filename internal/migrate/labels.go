package migrate

import "strings"

// maxLabelLength is GitHub's maximum label name length
const maxLabelLength = 50

// LabelKind identifies which taxonomy field a label was derived from
type LabelKind string

const (
	// LabelKindPriority derives from the issue's priority field
	LabelKindPriority LabelKind = "priority"
	// LabelKindIssueType derives from the issue's kind field (bug, enhancement, ...)
	LabelKindIssueType LabelKind = "issuetype"
	// LabelKindComponent derives from the issue's component field
	LabelKindComponent LabelKind = "component"
	// LabelKindVersion derives from the issue's affected-version field
	LabelKindVersion LabelKind = "version"
)

// LabelFor formats one taxonomy value as a destination label. Pure
// formatting: labels are created implicitly when an issue carrying them
// is imported, so no network call is involved. Issue types pass through
// unprefixed because Bitbucket's kinds (bug, enhancement, proposal,
// task) read naturally as GitHub labels; the other kinds are prefixed
// to keep their origin visible.
func LabelFor(kind LabelKind, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	var label string
	switch kind {
	case LabelKindIssueType:
		label = raw
	case LabelKindPriority:
		label = "priority: " + raw
	case LabelKindComponent:
		label = "component: " + raw
	case LabelKindVersion:
		label = "version: " + raw
	default:
		label = raw
	}

	return truncateLabel(label)
}

// truncateLabel enforces the destination's maximum label length,
// counting runes so multibyte values do not get split mid-character
func truncateLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= maxLabelLength {
		return label
	}
	return string(runes[:maxLabelLength])
}
