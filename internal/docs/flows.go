package docs

import "strings"

// Flow is one step of a business flow described in a markdown table.
type Flow struct {
	Step          string
	Actor         string
	Description   string
	Note          string
	RelatedTables string
}

// ExtractFlows parses markdown flow tables of the form
//
//	| Step | Actor | Description | Note | Related tables |
//	|------|-------|-------------|------|----------------|
//	| 1    | User  | Logs in     |      | users          |
//
// Header and separator rows are skipped; columns beyond the known five
// are ignored and missing trailing columns read as empty.
func ExtractFlows(doc string) []Flow {
	var flows []Flow

	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}

		cells := splitTableRow(line)
		if len(cells) == 0 || isHeaderRow(cells) || isSeparatorRow(cells) {
			continue
		}

		flow := Flow{Step: cells[0]}
		if len(cells) > 1 {
			flow.Actor = cells[1]
		}
		if len(cells) > 2 {
			flow.Description = cells[2]
		}
		if len(cells) > 3 {
			flow.Note = cells[3]
		}
		if len(cells) > 4 {
			flow.RelatedTables = cells[4]
		}
		flows = append(flows, flow)
	}
	return flows
}

func splitTableRow(line string) []string {
	trimmed := strings.Trim(line, "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, 0, len(parts))
	for _, part := range parts {
		cells = append(cells, strings.TrimSpace(part))
	}
	// Drop fully empty rows.
	for _, cell := range cells {
		if cell != "" {
			return cells
		}
	}
	return nil
}

func isHeaderRow(cells []string) bool {
	return strings.EqualFold(cells[0], "step")
}

func isSeparatorRow(cells []string) bool {
	for _, cell := range cells {
		if strings.Trim(cell, "-: ") != "" {
			return false
		}
	}
	return true
}
