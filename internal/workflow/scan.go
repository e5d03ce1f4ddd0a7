package workflow

import (
	"context"
	"strings"

	"github.com/alucardeht/ghflow-mcp/internal/github"
)

// priority buckets for task organization. Items whose priority field does
// not match any bucket are reported separately as unclassified.
var priorityBuckets = []string{"critical", "high", "medium", "low"}

// executeScanTasks fetches a ProjectV2 board and organizes its items by
// priority. Project resolution failure is terminal: no GitHub call runs.
func (e *Engine) executeScanTasks(ctx context.Context, cmd ScanTasksCommand) (map[string]interface{}, error) {
	log.Info("executing scan tasks workflow")

	projectNumber, err := e.projects.Locate(cmd.ProjectNumber)
	if err != nil {
		return nil, err
	}

	if e.hub == nil {
		return nil, authError("GitHub client not available")
	}

	items, err := e.hub.ProjectItems(ctx, e.owner, projectNumber)
	if err != nil {
		return nil, wrapStep("fetch project items", "", err)
	}

	items = filterItems(items, cmd.FilterType, cmd.Status)

	return map[string]interface{}{
		"status":         StatusSuccess,
		"project_number": projectNumber,
		"tasks":          organizeByPriority(items),
		"message":        "GitHub Project tasks available",
		"instructions":   "Select a task number to start working on it",
	}, nil
}

// filterItems applies the optional type and status filters over item field
// values. Matching is case-insensitive; items without the field drop out
// when a filter is set.
func filterItems(items []github.ProjectItem, filterType, status string) []github.ProjectItem {
	if filterType == "" && status == "" {
		return items
	}

	filtered := make([]github.ProjectItem, 0, len(items))
	for _, item := range items {
		if filterType != "" && !fieldEquals(item, "Type", filterType) {
			continue
		}
		if status != "" && !fieldEquals(item, "Status", status) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

func fieldEquals(item github.ProjectItem, field, want string) bool {
	value, ok := item.Fields[field]
	return ok && strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(want))
}

// organizeByPriority buckets items by their Priority field value plus a
// total count.
func organizeByPriority(items []github.ProjectItem) map[string]interface{} {
	organized := make(map[string]interface{}, len(priorityBuckets)+2)
	buckets := make(map[string][]github.ProjectItem, len(priorityBuckets))
	for _, name := range priorityBuckets {
		buckets[name] = []github.ProjectItem{}
	}
	unclassified := []github.ProjectItem{}

	for _, item := range items {
		priority := strings.ToLower(strings.TrimSpace(item.Fields["Priority"]))
		if _, ok := buckets[priority]; ok {
			buckets[priority] = append(buckets[priority], item)
		} else {
			unclassified = append(unclassified, item)
		}
	}

	for name, bucket := range buckets {
		organized[name] = bucket
	}
	organized["unclassified"] = unclassified
	organized["total"] = len(items)
	return organized
}
